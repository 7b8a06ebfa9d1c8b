package domain

import "errors"

var (
	// ErrDimensionMismatch signals an embedding whose length differs from the engine dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrSchemeNotFound signals a missing scheme.
	ErrSchemeNotFound = errors.New("scheme not found")
	// ErrEmptyBatch signals a batch upsert with no items.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrInvalidTopK signals a non-positive top_k.
	ErrInvalidTopK = errors.New("top_k must be >= 1")
	// ErrCacheMiss signals a cache lookup that found nothing.
	ErrCacheMiss = errors.New("cache miss")
	// ErrAnswerNotConfigured signals that no answer provider is configured.
	ErrAnswerNotConfigured = errors.New("answer provider not configured")
	// ErrAnswerProviderError signals an upstream answer provider failure.
	ErrAnswerProviderError = errors.New("answer provider error")
)
