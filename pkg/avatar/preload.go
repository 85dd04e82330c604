package avatar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Loader fetches an asset ahead of playback.
type Loader interface {
	Load(ctx context.Context, a Asset) error
}

// Progress reports preload completion. Failed assets count as done.
type Progress struct {
	Done   int
	Failed int
	Total  int
}

// Percent returns completion in whole percent.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 100
	}
	return p.Done * 100 / p.Total
}

// Report is the outcome of a preload run.
type Report struct {
	Total  int
	Failed map[string]error // keyed by asset name
}

// Preloader loads assets concurrently and opens a gate once every asset
// has either loaded or failed.
type Preloader struct {
	loader      Loader
	concurrency int
	logger      *slog.Logger
}

// NewPreloader creates a preloader. concurrency <= 0 loads everything at once.
func NewPreloader(loader Loader, concurrency int, logger *slog.Logger) *Preloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preloader{loader: loader, concurrency: concurrency, logger: logger}
}

// Preload loads assets, reporting progress after each completion, and opens
// gate when all are done. A failure never blocks the gate.
func (p *Preloader) Preload(ctx context.Context, gate *Gate, assets []Asset, onProgress func(Progress)) Report {
	report := Report{Total: len(assets), Failed: make(map[string]error)}

	limit := p.concurrency
	if limit <= 0 || limit > len(assets) {
		limit = len(assets)
	}
	sem := make(chan struct{}, max(limit, 1))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		progress = Progress{Total: len(assets)}
	)

	for _, a := range assets {
		wg.Add(1)
		go func(a Asset) {
			defer wg.Done()

			sem <- struct{}{}
			err := p.loader.Load(ctx, a)
			<-sem

			mu.Lock()
			defer mu.Unlock()
			progress.Done++
			if err != nil {
				progress.Failed++
				report.Failed[a.Name] = err
				p.logger.Warn("Asset failed to preload",
					slog.String("asset", a.Name),
					slog.String("error", err.Error()))
			}
			if onProgress != nil {
				onProgress(progress)
			}
		}(a)
	}
	wg.Wait()

	p.logger.Info("Asset preload complete",
		slog.Int("total", report.Total),
		slog.Int("failed", len(report.Failed)))

	if gate != nil {
		gate.Open()
	}
	return report
}

// Gate is closed until preload finishes.
type Gate struct {
	ready int32
	once  sync.Once
	done  chan struct{}
}

// NewGate creates a closed gate.
func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Open opens the gate. Safe to call more than once.
func (g *Gate) Open() {
	g.once.Do(func() {
		atomic.StoreInt32(&g.ready, 1)
		close(g.done)
	})
}

// Ready returns true once the gate is open.
func (g *Gate) Ready() bool {
	return atomic.LoadInt32(&g.ready) == 1
}

// Wait blocks until the gate opens or ctx is cancelled.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HTTPLoader warms assets by downloading them.
type HTTPLoader struct {
	Client *http.Client
}

// NewHTTPLoader creates a loader with a per-asset timeout.
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	return &HTTPLoader{Client: &http.Client{Timeout: timeout}}
}

// Load downloads a and discards the body.
func (l *HTTPLoader) Load(ctx context.Context, a Asset) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return fmt.Errorf("avatar: build request for %s: %w", a.Name, err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("avatar: fetch %s: %w", a.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("avatar: fetch %s: status %d", a.Name, resp.StatusCode)
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("avatar: read %s: %w", a.Name, err)
	}
	return nil
}
