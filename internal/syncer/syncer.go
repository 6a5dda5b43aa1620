// Package syncer drives the incremental index pipeline: scan the
// repository, diff against the manifest, embed what changed, write the
// vector store, and persist the manifest last.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mkarrett/codescope/internal/embeddings"
	"github.com/mkarrett/codescope/internal/manifest"
	"github.com/mkarrett/codescope/internal/progress"
	"github.com/mkarrett/codescope/internal/segment"
	"github.com/mkarrett/codescope/internal/vectordb"
	"github.com/mkarrett/codescope/internal/walker"
)

// Phase names the stage a sync run is in. A run moves strictly forward;
// any error after Diffing leaves the run in PhaseFailed with the manifest
// untouched.
type Phase string

const (
	PhaseScanning  Phase = "scanning"
	PhaseDiffing   Phase = "diffing"
	PhaseEmbedding Phase = "embedding"
	PhaseWriting   Phase = "writing"
	PhasePersisted Phase = "persisted"
	PhaseFailed    Phase = "failed"
)

// Config controls one sync run.
type Config struct {
	RepoRoot    string
	IndexDir    string
	Walker      walker.Config
	Batcher     embeddings.BatcherConfig
	Concurrency int  // parallel file segmentation; <=0 means 4
	Force       bool // treat the manifest as empty and re-embed everything
	DryRun      bool // compute the diff, mutate nothing
}

// Result summarizes a sync run. Counts refer to segments, not files.
type Result struct {
	RunID     string
	Phase     Phase
	Files     int
	Segments  int
	Added     int
	Updated   int
	Deleted   int
	Unchanged int
	Failed    int // segments whose embedding batch failed
	UpToDate  bool
	Warnings  []string
	Errors    []error
}

// Syncer owns the moving parts of the pipeline for one repository and
// profile. It is not safe for concurrent Run calls; the index lock
// enforces that across processes too.
type Syncer struct {
	router   *segment.Router
	embedder embeddings.Embedder
	store    vectordb.Store
	reporter progress.Reporter
	cfg      Config
}

// New creates a Syncer. A nil reporter disables progress output.
func New(router *segment.Router, embedder embeddings.Embedder, store vectordb.Store, reporter progress.Reporter, cfg Config) *Syncer {
	if reporter == nil {
		reporter = progress.Silent()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Syncer{
		router:   router,
		embedder: embedder,
		store:    store,
		reporter: reporter,
		cfg:      cfg,
	}
}

// SetForce makes the next Run treat the manifest as empty, re-embedding
// every segment.
func (s *Syncer) SetForce(force bool) { s.cfg.Force = force }

// SetDryRun makes the next Run stop after diffing, mutating nothing.
func (s *Syncer) SetDryRun(dryRun bool) { s.cfg.DryRun = dryRun }

// Run executes one full sync. The manifest is persisted only after every
// store mutation has succeeded, so a crash mid-run leaves a manifest that
// still describes the store's previous consistent state; the next run
// simply redoes the interrupted work.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.NewString(), Phase: PhaseScanning}

	lock, err := AcquireLock(s.cfg.IndexDir)
	if err != nil {
		result.Phase = PhaseFailed
		return result, err
	}
	defer func() { _ = lock.Release() }()

	segments, err := s.scan(ctx, result)
	if err != nil {
		result.Phase = PhaseFailed
		return result, err
	}

	result.Phase = PhaseDiffing
	m, changes, err := s.diff(segments, result)
	if err != nil {
		result.Phase = PhaseFailed
		return result, err
	}

	result.Added = len(changes.Add)
	result.Updated = len(changes.Update)
	result.Deleted = len(changes.Delete)
	result.Unchanged = result.Segments - result.Added - result.Updated

	if changes.Empty() {
		// Nothing to embed, write, or persist.
		result.Phase = PhasePersisted
		result.UpToDate = true
		return result, nil
	}

	if s.cfg.DryRun {
		result.Phase = PhaseDiffing
		return result, nil
	}

	result.Phase = PhaseEmbedding
	changed := append(append([]segment.Segment{}, changes.Add...), changes.Update...)
	s.reporter.Start(len(changed))
	batcher := embeddings.NewBatcher(s.embedder, s.cfg.Batcher)
	batcher.OnProgress(func(done, total int) {
		s.reporter.Update(done, fmt.Sprintf("embedded %d/%d segments", done, total))
	})
	vectors, embedErrs := batcher.EmbedSegments(ctx, changed)
	s.reporter.Finish()

	failed := make(map[string]bool)
	for _, err := range embedErrs {
		result.Errors = append(result.Errors, err)
		var batchErr *embeddings.BatchError
		if errors.As(err, &batchErr) {
			for _, id := range batchErr.IDs {
				failed[id] = true
			}
		}
	}
	result.Failed = len(failed)

	result.Phase = PhaseWriting
	written, err := s.write(ctx, changed, vectors, changes.Delete)
	if err != nil {
		// The store may hold some of this run's writes, but the manifest
		// still describes the last consistent state; rerunning converges.
		result.Phase = PhaseFailed
		result.Errors = append(result.Errors, err)
		return result, err
	}

	s.updateManifest(m, written, changes.Delete)
	if err := m.Save(manifest.Path(s.cfg.IndexDir)); err != nil {
		result.Phase = PhaseFailed
		result.Errors = append(result.Errors, err)
		return result, err
	}

	result.Phase = PhasePersisted
	return result, nil
}

// Status computes the pending diff without mutating anything. It does not
// take the index lock, so it can run alongside a sync; the answer is a
// snapshot either way.
func (s *Syncer) Status(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.NewString(), Phase: PhaseScanning}

	segments, err := s.scan(ctx, result)
	if err != nil {
		result.Phase = PhaseFailed
		return result, err
	}

	result.Phase = PhaseDiffing
	_, changes, err := s.diff(segments, result)
	if err != nil {
		result.Phase = PhaseFailed
		return result, err
	}

	result.Added = len(changes.Add)
	result.Updated = len(changes.Update)
	result.Deleted = len(changes.Delete)
	result.Unchanged = result.Segments - result.Added - result.Updated
	result.UpToDate = changes.Empty()
	return result, nil
}

// scan walks the repository and segments every file under bounded
// parallelism. Unparseable files degrade to a warning, never a run
// failure: the file is skipped and the rest of the repository indexes.
func (s *Syncer) scan(ctx context.Context, result *Result) ([]segment.Segment, error) {
	cfg := s.cfg.Walker
	cfg.RootDir = s.cfg.RepoRoot

	files, err := walker.Walk(cfg)
	if err != nil {
		return nil, err
	}
	result.Files = len(files)

	perFile := make([][]segment.Segment, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			content, err := os.ReadFile(file.Path)
			if err != nil {
				mu.Lock()
				result.Warnings = append(result.Warnings, fmt.Sprintf("skipping %s: %v", file.RelPath, err))
				mu.Unlock()
				return nil
			}

			segs, err := s.router.SegmentFile(gctx, file.RelPath, content)
			if err != nil {
				var parseErr *segment.ParseError
				if errors.As(err, &parseErr) {
					mu.Lock()
					result.Warnings = append(result.Warnings, err.Error())
					mu.Unlock()
					return nil
				}
				return err
			}

			perFile[i] = segs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Flatten in walk order so identity assignment and diffs stay
	// deterministic regardless of goroutine scheduling.
	var segments []segment.Segment
	for _, segs := range perFile {
		segments = append(segments, segs...)
	}
	result.Segments = len(segments)
	return segments, nil
}

// diff loads the manifest and classifies the current segments against
// it. A forced run still loads the old manifest: its stale ids must be
// deleted in this run, because the rewritten manifest will no longer
// mention them and later diffs would never find them.
func (s *Syncer) diff(segments []segment.Segment, result *Result) (*manifest.Manifest, manifest.Changes, error) {
	m, err := manifest.Load(manifest.Path(s.cfg.IndexDir))
	if err != nil {
		var corrupt *manifest.CorruptError
		if !errors.As(err, &corrupt) {
			return nil, manifest.Changes{}, err
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v; rebuilding index from scratch", err))
	}

	if s.cfg.Force {
		return m, manifest.Rebuild(segments, m), nil
	}
	return m, manifest.Diff(segments, m), nil
}

// write applies the run's mutations to the store: upserts for every
// segment that embedded successfully, then deletes. It returns the
// segments actually written. Store write failures abort the run.
func (s *Syncer) write(ctx context.Context, changed []segment.Segment, vectors map[string][]float32, deletes []string) ([]segment.Segment, error) {
	var written []segment.Segment
	var items []vectordb.IndexItem
	for _, seg := range changed {
		vec, ok := vectors[seg.ID]
		if !ok {
			continue
		}
		items = append(items, vectordb.NewItem(seg, vec))
		written = append(written, seg)
	}

	if err := s.store.Upsert(ctx, items); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, deletes); err != nil {
		return nil, err
	}
	return written, nil
}

// updateManifest folds the run's outcome into the manifest: written
// segments record their new hash, deleted ids drop out, and segments
// whose embedding failed keep their previous entry (or stay absent) so
// the next run retries them.
func (s *Syncer) updateManifest(m *manifest.Manifest, written []segment.Segment, deletes []string) {
	for _, id := range deletes {
		delete(m.Entries, id)
	}
	for _, seg := range written {
		m.Entries[seg.ID] = seg.ContentHash
	}
}

// SortWarnings orders a result's warnings for stable output.
func (r *Result) SortWarnings() {
	sort.Strings(r.Warnings)
}
