package health

import "context"

// CachePinger checks result-cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EngineStats reports the in-process engine's state.
type EngineStats interface {
	CorpusSize() int
	EmbeddingDim() int
}
