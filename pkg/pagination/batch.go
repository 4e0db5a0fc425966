package pagination

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Fetcher is the single-page fetch capability the batch fetcher builds on.
type Fetcher interface {
	Get(ctx context.Context, addr string) ([]byte, error)
}

// PageAddr maps a page number to its address.
type PageAddr func(page int) string

// BatchConfig bounds the worker pool used by FetchPages.
type BatchConfig struct {
	// MaxConcurrency is the number of parallel workers. The shared pacer
	// still spaces every request, so extra workers overlap waiting rather
	// than adding load on the remote site.
	MaxConcurrency int
}

// DefaultBatchConfig returns a safe default batch configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{MaxConcurrency: 4}
}

// pageResult carries one fetched page back from a worker.
type pageResult struct {
	page int
	body []byte
	err  error
}

// FetchPages fetches pages 1..lastPage of a listing through a worker pool
// and returns page number -> body for every page that succeeded. The first
// fetch error is returned alongside the partial results; remaining pages are
// still attempted so one bad page does not discard the rest.
func FetchPages(ctx context.Context, f Fetcher, addr PageAddr, lastPage int, cfg BatchConfig) (map[int][]byte, error) {
	if lastPage < 1 {
		return nil, fmt.Errorf("last page must be >= 1 (got %d)", lastPage)
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultBatchConfig().MaxConcurrency
	}

	pages := make(chan int, lastPage)
	results := make(chan pageResult, lastPage)

	for page := 1; page <= lastPage; page++ {
		pages <- page
	}
	close(pages)

	workers := cfg.MaxConcurrency
	if workers > lastPage {
		workers = lastPage
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pages {
				select {
				case <-ctx.Done():
					results <- pageResult{page: page, err: ctx.Err()}
					continue
				default:
				}

				body, err := f.Get(ctx, addr(page))
				results <- pageResult{page: page, body: body, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[int][]byte, lastPage)
	var firstErr error
	for res := range results {
		if res.err != nil {
			log.Warn().
				Err(res.err).
				Int("page", res.page).
				Msg("Page fetch failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch page %d: %w", res.page, res.err)
			}
			continue
		}
		out[res.page] = res.body
	}

	return out, firstErr
}
