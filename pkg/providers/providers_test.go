package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

type stubDispatcher struct {
	text string
}

func (s *stubDispatcher) PerformRequest(ctx context.Context, system, user string, session *types.ActiveSession, timeout time.Duration) (string, error) {
	return s.text, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	stub := &stubDispatcher{text: "ok"}

	r.Register(types.ProviderTypeOpenAI, stub)

	d, err := r.For(types.ProviderTypeOpenAI)
	require.NoError(t, err)
	assert.Same(t, stub, d)

	text, err := d.PerformRequest(context.Background(), "s", "u", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.For(types.ProviderTypeBedrock)
	var enhErr *types.EnhanceError
	require.ErrorAs(t, err, &enhErr)
	assert.Equal(t, types.ErrCodeNotConfigured, enhErr.Code)
	assert.Equal(t, types.ProviderTypeBedrock, enhErr.Provider)
}

func TestRegistry_ReplaceDispatcher(t *testing.T) {
	r := NewRegistry()
	first := &stubDispatcher{text: "first"}
	second := &stubDispatcher{text: "second"}

	r.Register(types.ProviderTypeGroq, first)
	r.Register(types.ProviderTypeGroq, second)

	d, err := r.For(types.ProviderTypeGroq)
	require.NoError(t, err)
	assert.Same(t, second, d)
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, []types.ProviderType{
		types.ProviderTypeAnthropic,
		types.ProviderTypeBedrock,
		types.ProviderTypeCerebras,
		types.ProviderTypeGroq,
		types.ProviderTypeOpenAI,
		types.ProviderTypeOpenRouter,
	}, r.Supported())

	// OpenAI-compatible providers share one dispatcher instance.
	openaiDisp, err := r.For(types.ProviderTypeOpenAI)
	require.NoError(t, err)
	groqDisp, err := r.For(types.ProviderTypeGroq)
	require.NoError(t, err)
	assert.Same(t, openaiDisp, groqDisp)

	anthropicDisp, err := r.For(types.ProviderTypeAnthropic)
	require.NoError(t, err)
	assert.NotSame(t, openaiDisp, anthropicDisp)
}
