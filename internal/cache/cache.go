// Package cache stores upstream artifacts on local disk, laid out as
// {root}/{source}/{filename}. Fills stream through a .tmp file and rename so
// readers never observe a partial download.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
	"github.com/oneinstack/mirror/internal/logger"
	"github.com/oneinstack/mirror/internal/utils"
)

// PathFunc resolves the cache root at call time, so a settings change takes
// effect without restarting.
type PathFunc func(ctx context.Context) string

// fillTimeout bounds one upstream download.
const fillTimeout = 10 * time.Minute

// ErrUpstreamStatus is returned when the upstream answers a fill request with
// a non-2xx status.
var ErrUpstreamStatus = errors.New("upstream returned error status")

type inflightFill struct {
	done chan struct{}
	path string
	err  error
}

// Store is the on-disk artifact cache.
type Store struct {
	rootFn PathFunc
	http   *http.Client
	logger logger.Logger

	mu       sync.Mutex
	inflight map[string]*inflightFill
}

// New creates a cache store. httpClient may be nil.
func New(rootFn PathFunc, httpClient *http.Client, log logger.Logger) *Store {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: fillTimeout}
	}
	return &Store{
		rootFn:   rootFn,
		http:     httpClient,
		logger:   log,
		inflight: make(map[string]*inflightFill),
	}
}

func (s *Store) filePath(ctx context.Context, source, filename string) string {
	return filepath.Join(s.rootFn(ctx), filepath.Base(source), filepath.Base(filename))
}

// Lookup returns the on-disk path of a cached artifact, or ok=false on miss.
func (s *Store) Lookup(ctx context.Context, source, filename string) (string, bool) {
	path := s.filePath(ctx, source, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}
	return path, true
}

// Fetch returns the cached path for the resource, downloading from the
// upstream URL on a miss. Concurrent fetches of the same filename share one
// download; every waiter gets the same outcome.
func (s *Store) Fetch(ctx context.Context, res domain.Resource) (string, error) {
	if path, ok := s.Lookup(ctx, res.Source, res.FileName); ok {
		return path, nil
	}

	s.mu.Lock()
	if fill, ok := s.inflight[res.FileName]; ok {
		s.mu.Unlock()
		select {
		case <-fill.done:
			return fill.path, fill.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	fill := &inflightFill{done: make(chan struct{})}
	s.inflight[res.FileName] = fill
	s.mu.Unlock()

	fill.path, fill.err = s.download(ctx, res)

	s.mu.Lock()
	delete(s.inflight, res.FileName)
	s.mu.Unlock()
	close(fill.done)

	return fill.path, fill.err
}

func (s *Store) download(ctx context.Context, res domain.Resource) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fillTimeout)
	defer cancel()

	target := s.filePath(ctx, res.Source, res.FileName)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", res.FileName, err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", res.FileName, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %d for %s", ErrUpstreamStatus, resp.StatusCode, res.FileName)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", res.FileName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move %s into cache: %w", res.FileName, err)
	}

	s.logger.Info("cached artifact",
		logger.String("file", res.FileName),
		logger.String("source", res.Source))
	return target, nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Files      int            `json:"files"`
	TotalBytes int64          `json:"total_bytes"`
	BySource   map[string]int `json:"by_source"`
}

// Stats walks the cache root and counts files per source directory.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{BySource: make(map[string]int)}
	root := s.rootFn(ctx)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		stats.Files++
		stats.TotalBytes += info.Size()
		if dir := filepath.Dir(rel); dir != "." {
			stats.BySource[dir]++
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return stats, fmt.Errorf("failed to walk cache: %w", err)
	}
	return stats, nil
}

// WarmReport summarizes a Warm run.
type WarmReport struct {
	Requested int `json:"requested"`
	Fetched   int `json:"fetched"`
	Failed    int `json:"failed"`
}

// Warm fetches the given resources with bounded concurrency. Failures are
// logged and counted; one bad upstream does not abort the rest.
func (s *Store) Warm(ctx context.Context, resources []domain.Resource, concurrency int) WarmReport {
	if concurrency <= 0 {
		concurrency = 4
	}

	report := WarmReport{Requested: len(resources)}
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)

	for _, res := range resources {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(res domain.Resource) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := s.Fetch(ctx, res)
			mu.Lock()
			if err != nil {
				report.Failed++
			} else {
				report.Fetched++
			}
			mu.Unlock()
			if err != nil {
				s.logger.Warn("cache warm failed",
					logger.String("file", res.FileName),
					logger.Error(err))
			}
		}(res)
	}
	wg.Wait()
	return report
}
