package rule

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Source supplies productions, either already realized or loaded on demand.
type Source interface {
	LoadProductions(ctx context.Context) ([]Production, error)
}

// Productions is an already-realized source.
type Productions []Production

// LoadProductions returns the productions unchanged.
func (ps Productions) LoadProductions(context.Context) ([]Production, error) {
	return ps, nil
}

// SourceFunc adapts a loader function to Source.
type SourceFunc func(ctx context.Context) ([]Production, error)

// LoadProductions calls f.
func (f SourceFunc) LoadProductions(ctx context.Context) ([]Production, error) {
	return f(ctx)
}

// LoadAll loads every source and returns the concatenation of their
// productions in source order. Sources are loaded concurrently; the first
// failure cancels the rest and is returned with its cause wrapped.
func LoadAll(ctx context.Context, sources ...Source) ([]Production, error) {
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("rule source %d is nil", i)
		}
	}

	loaded := make([][]Production, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			ps, err := src.LoadProductions(gctx)
			if err != nil {
				return fmt.Errorf("loading rule source %d: %w", i, err)
			}
			loaded[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, ps := range loaded {
		total += len(ps)
	}
	all := make([]Production, 0, total)
	for _, ps := range loaded {
		all = append(all, ps...)
	}
	return all, nil
}
