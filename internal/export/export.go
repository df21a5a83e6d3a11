// Package export persists profiles as DXF files. Writes go through a temp
// file in the destination directory and are renamed into place, so a failed
// write never leaves a partial drawing behind.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Contour/internal/dxf"
	"Contour/internal/section"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the batch pool size used when none is configured.
const DefaultWorkers = 4

// Item is one profile to persist.
type Item struct {
	Kind    section.Kind
	Profile section.Profile
	// Name is the destination file name, relative to the service directory
	// unless absolute. Empty means a timestamped name.
	Name string
}

// Result is the outcome of one batch item. Path is empty when Err is set.
type Result struct {
	Index int
	Path  string
	Err   error
}

// BusyError is returned when another write to the same destination is in
// progress.
type BusyError struct {
	Path string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("destination %s is already being written", e.Path)
}

// Service writes DXF files into a directory.
type Service struct {
	dir     string
	workers int
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	active map[string]struct{}
}

// NewService returns a Service writing into dir with a batch pool of
// workers goroutines.
func NewService(dir string, workers int, logger *slog.Logger) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		dir:     dir,
		workers: workers,
		logger:  logger,
		now:     time.Now,
		active:  make(map[string]struct{}),
	}
}

// Dir returns the output directory.
func (s *Service) Dir() string { return s.dir }

// Task is a single in-flight save.
type Task struct {
	done chan struct{}
	path string
	err  error
}

// Done is closed once the save has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the save finishes and returns the written path.
func (t *Task) Wait() (string, error) {
	<-t.done
	return t.path, t.err
}

// Start begins saving item in the background and returns immediately.
func (s *Service) Start(ctx context.Context, item Item) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.path, t.err = s.write(ctx, item, s.defaultName(item.Kind))
	}()
	return t
}

// Save writes item and waits for completion.
func (s *Service) Save(ctx context.Context, item Item) (string, error) {
	return s.Start(ctx, item).Wait()
}

// SaveBatch writes all items on the worker pool. A failing item does not
// stop its siblings; results are returned in input order.
func (s *Service) SaveBatch(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))
	stamp := s.now()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, item := range items {
		g.Go(func() error {
			path, err := s.write(gCtx, item, batchName(item.Kind, stamp, i+1))
			results[i] = Result{Index: i, Path: path, Err: err}
			if err != nil {
				s.logger.Error("dxf generation failed", "index", i, "error", err)
			}
			// Never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) write(ctx context.Context, item Item, fallback string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := item.Name
	if name == "" {
		name = fallback
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, name)
	}

	if err := s.acquire(path); err != nil {
		return "", err
	}
	defer s.release(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".contour-*.dxf.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := dxf.SaveProfile(tmpName, layerFor(item.Kind), item.Profile); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename into %s: %w", path, err)
	}

	s.logger.Debug("dxf generated", "path", path, "vertices", len(item.Profile))
	return path, nil
}

func (s *Service) acquire(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[path]; busy {
		return &BusyError{Path: path}
	}
	s.active[path] = struct{}{}
	return nil
}

func (s *Service) release(path string) {
	s.mu.Lock()
	delete(s.active, path)
	s.mu.Unlock()
}

func (s *Service) defaultName(k section.Kind) string {
	return fmt.Sprintf("%s_%s.dxf", kindLabel(k), s.now().Format("20060102_150405"))
}

func batchName(k section.Kind, stamp time.Time, n int) string {
	return fmt.Sprintf("%s_%s_%d.dxf", kindLabel(k), stamp.Format("20060102_150405"), n)
}

func kindLabel(k section.Kind) string {
	switch k {
	case section.Beam:
		return "IBeam"
	case section.Column:
		return "Column"
	default:
		return "output"
	}
}

func layerFor(k section.Kind) string {
	switch k {
	case section.Beam:
		return "BEAM"
	case section.Column:
		return "COLUMN"
	default:
		return dxf.DefaultLayer
	}
}
