// Package types defines the core data structures for the enhancement engine:
// provider identifiers, the immutable ActiveSession value, the Auth variants,
// AWS credential material, switch tokens, and the shared error taxonomy used
// across all dispatcher implementations.
package types
