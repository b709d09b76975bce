// Package batch fans a set of URLs out across a worker pool, sending each
// through the caching client.
//
// Fetching a batch both parallelizes the network round-trips and warms the
// cache: cacheable responses are stored on the way through, so later
// single requests for the same URLs are served locally.
//
// Example usage:
//
//	fetcher := batch.NewFetcher(c, batch.DefaultConfig())
//	responses, err := fetcher.FetchAll(ctx, urls)
//
// Failed URLs do not abort the batch. FetchAll returns every response it
// collected alongside the first error.
package batch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redjax/go-httpclient/pkg/client"
	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests.
	MaxConcurrency int

	// Timeout bounds each individual fetch.
	Timeout time.Duration

	// BufferSize sizes the internal queues. Defaults to the URL count.
	BufferSize int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

// Client is the request surface a Fetcher needs. Both client.Client and
// client.LazyClient implement it.
type Client interface {
	Build(method, url string, opts ...client.RequestOption) (*client.OutboundRequest, error)
	Send(ctx context.Context, req *client.OutboundRequest, opts ...client.SendOption) (*client.Response, error)
}

// Result is the outcome of fetching a single URL.
type Result struct {
	URL      string
	Response *client.Response
	Err      error
}

// Fetcher issues GET requests for many URLs concurrently.
type Fetcher struct {
	client Client
	config Config
}

// NewFetcher creates a batch fetcher over c.
func NewFetcher(c Client, config Config) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Fetcher{client: c, config: config}
}

// FetchAll GETs every URL through the worker pool and returns the
// responses keyed by URL. opts apply to every request. Failed URLs are
// skipped; the first error is returned alongside the collected responses.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, opts ...client.RequestOption) (map[string]*client.Response, error) {
	start := time.Now()

	buffer := f.config.BufferSize
	if buffer <= 0 {
		buffer = len(urls)
	}

	queue := make(chan string, buffer)
	results := make(chan Result, buffer)

	// The queue may be smaller than the URL set; if the workers bail
	// out on cancellation the feeder must not block on a full channel.
	go func() {
		defer close(queue)
		for _, url := range urls {
			select {
			case queue <- url:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < f.config.MaxConcurrency; i++ {
		wg.Add(1)
		go f.worker(ctx, queue, results, &wg, opts)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	responses := make(map[string]*client.Response, len(urls))
	var firstErr error
	fetched := 0
	for result := range results {
		if result.Err != nil {
			log.Warn().Err(result.Err).Str("url", result.URL).Msg("batch fetch failed")
			if firstErr == nil {
				firstErr = result.Err
			}
			continue
		}

		responses[result.URL] = result.Response
		fetched++

		if fetched%50 == 0 {
			log.Info().
				Int("fetched", fetched).
				Int("total", len(urls)).
				Msg("batch progress")
		}
	}

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return responses, fmt.Errorf("batch fetch (%d/%d succeeded): %w", fetched, len(urls), firstErr)
	}

	log.Info().
		Int("urls", fetched).
		Dur("duration", time.Since(start)).
		Msg("batch complete")

	return responses, nil
}

// Warm fetches every URL and discards the responses, leaving cacheable
// ones stored for later requests. It returns the number of URLs fetched
// successfully.
func (f *Fetcher) Warm(ctx context.Context, urls []string, opts ...client.RequestOption) (int, error) {
	responses, err := f.FetchAll(ctx, urls, opts...)
	return len(responses), err
}

// worker drains the queue until it closes or ctx is cancelled.
func (f *Fetcher) worker(ctx context.Context, queue <-chan string, results chan<- Result, wg *sync.WaitGroup, opts []client.RequestOption) {
	defer wg.Done()

	for url := range queue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		resp, err := f.fetch(fetchCtx, url, opts)
		cancel()

		select {
		case results <- Result{URL: url, Response: resp, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

func (f *Fetcher) fetch(ctx context.Context, url string, opts []client.RequestOption) (*client.Response, error) {
	req, err := f.client.Build(http.MethodGet, url, opts...)
	if err != nil {
		return nil, err
	}
	return f.client.Send(ctx, req)
}
