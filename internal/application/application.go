package application

import "context"

// UseCase is a single command entry point. Transports depend on this shape
// rather than on concrete use case types.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// UseCaseFunc adapts a function to UseCase.
type UseCaseFunc[C any, R any] func(ctx context.Context, cmd C) (R, error)

func (f UseCaseFunc[C, R]) Execute(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a window of a list ordered by creation time.
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the window: negative offsets become zero, a missing limit
// becomes DefaultPageSize and limits above MaxPageSize are capped.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageSize
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	}
	return p
}
