package metadata

import (
	"context"

	"xp3/internal/logger"
)

// ArtworkChain tries multiple artwork sources in order, returning the image
// from the first one that has it.
type ArtworkChain struct {
	sources []ArtworkSource
	logger  *logger.Logger
}

// NewArtworkChain creates an ArtworkChain that queries sources in order.
func NewArtworkChain(sources []ArtworkSource, log *logger.Logger) *ArtworkChain {
	return &ArtworkChain{sources: sources, logger: log}
}

func (c *ArtworkChain) Name() string { return "chain" }

func (c *ArtworkChain) ByReleaseGroup(ctx context.Context, id string) ([]byte, error) {
	return c.first(ctx, func(s ArtworkSource) ([]byte, error) {
		return s.ByReleaseGroup(ctx, id)
	})
}

func (c *ArtworkChain) ByText(ctx context.Context, artist, album string) ([]byte, error) {
	return c.first(ctx, func(s ArtworkSource) ([]byte, error) {
		return s.ByText(ctx, artist, album)
	})
}

func (c *ArtworkChain) first(ctx context.Context, lookup func(ArtworkSource) ([]byte, error)) ([]byte, error) {
	for _, s := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := lookup(s)
		if err != nil {
			c.logger.Debug("artwork source %s failed: %v", s.Name(), err)
			continue
		}
		if len(data) > 0 {
			return data, nil
		}
	}
	return nil, nil
}
