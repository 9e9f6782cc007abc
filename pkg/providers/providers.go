// Package providers defines the dispatch contract shared by every
// provider integration and a registry that maps provider types to
// dispatchers.
package providers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/anthropic"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/bedrock"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers/openai"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// Dispatcher sends one enhancement request to a provider and returns
// the enhanced text. Implementations classify failures into the
// types.EnhanceError taxonomy.
type Dispatcher interface {
	PerformRequest(ctx context.Context, system, user string, session *types.ActiveSession, timeout time.Duration) (string, error)
}

// Registry maps provider types to dispatchers.
type Registry struct {
	mu          sync.RWMutex
	dispatchers map[types.ProviderType]Dispatcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		dispatchers: make(map[types.ProviderType]Dispatcher),
	}
}

// NewDefaultRegistry creates a registry wired with the built-in
// dispatchers. All OpenAI-compatible providers share one dispatcher.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	chat := openai.NewDispatcher(openai.Config{})
	r.Register(types.ProviderTypeOpenAI, chat)
	r.Register(types.ProviderTypeGroq, chat)
	r.Register(types.ProviderTypeCerebras, chat)
	r.Register(types.ProviderTypeOpenRouter, chat)

	r.Register(types.ProviderTypeAnthropic, anthropic.NewDispatcher(anthropic.Config{}))
	r.Register(types.ProviderTypeBedrock, bedrock.NewDispatcher(bedrock.Config{}))

	return r
}

// Register adds or replaces the dispatcher for a provider type.
func (r *Registry) Register(provider types.ProviderType, d Dispatcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatchers[provider] = d
}

// For returns the dispatcher registered for a provider type.
func (r *Registry) For(provider types.ProviderType) (Dispatcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dispatchers[provider]
	if !ok {
		return nil, types.NewEnhanceError(provider, types.ErrCodeNotConfigured,
			"no dispatcher registered for provider")
	}
	return d, nil
}

// Supported returns the registered provider types in sorted order.
func (r *Registry) Supported() []types.ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	supported := make([]types.ProviderType, 0, len(r.dispatchers))
	for provider := range r.dispatchers {
		supported = append(supported, provider)
	}
	sort.Slice(supported, func(i, j int) bool { return supported[i] < supported[j] })
	return supported
}
