// Package engine runs one incremental archiving pass: watermark read,
// candidate enumeration, path planning, per-message processing and
// watermark finalization.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mholdt/mail-archiver/archive"
	"github.com/mholdt/mail-archiver/cache"
	"github.com/mholdt/mail-archiver/model"
	"github.com/mholdt/mail-archiver/source"
	"github.com/mholdt/mail-archiver/stats"
	"github.com/mholdt/mail-archiver/store"
	"github.com/mholdt/mail-archiver/watermark"
)

var (
	// ErrNoWatermark means neither a stored watermark nor a configured
	// initial value exists. Treated as a configuration error, never as
	// an implicit zero.
	ErrNoWatermark = errors.New("no stored watermark and no initial watermark configured")
	// ErrEnumerate marks a mail-source failure. Fatal for the run; no
	// writes have happened yet when it occurs.
	ErrEnumerate = errors.New("mail source enumeration failed")
	// ErrPersistWatermark marks a failed checkpoint write at the end
	// of a run. The archive writes themselves succeeded; the next run
	// will reprocess them and the duplicate policy absorbs that.
	ErrPersistWatermark = errors.New("watermark persistence failed")
)

// Options configures one engine instance.
type Options struct {
	// Query is the source-specific selection fragment, extended with
	// the coarse after-bound by the source itself.
	Query       string
	Granularity archive.Granularity
	Mode        archive.Mode
	// Key is the property name of the watermark, DefaultKey if empty.
	Key string
	// InitialWatermark seeds the first ever run, in epoch seconds.
	// Negative means unset.
	InitialWatermark int64
	// Location is the reference zone for folder paths and filenames.
	// It must be stable for a deployment; defaults to the process's
	// local zone.
	Location *time.Location
	DryRun   bool
}

// Report is the outcome of a completed run.
type Report struct {
	Summary   stats.Summary
	Duration  time.Duration
	Watermark int64
	Advanced  bool
}

type Engine struct {
	source    source.Source
	store     store.Store
	marks     watermark.Store
	opts      Options
	logger    *slog.Logger
	collector *stats.Collector
	observer  func(stats.Event)
}

func New(src source.Source, st store.Store, marks watermark.Store, opts Options, logger *slog.Logger) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("engine: source must not be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("engine: store must not be nil")
	}
	if marks == nil {
		return nil, fmt.Errorf("engine: watermark store must not be nil")
	}
	if _, err := archive.ParseGranularity(string(opts.Granularity)); err != nil {
		return nil, err
	}
	if _, err := archive.ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Key == "" {
		opts.Key = watermark.DefaultKey
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:    src,
		store:     st,
		marks:     marks,
		opts:      opts,
		logger:    logger,
		collector: stats.NewCollector(),
	}, nil
}

// SetObserver registers an additional consumer of run events, such as
// a progress renderer. Must be called before Run.
func (e *Engine) SetObserver(fn func(stats.Event)) {
	e.observer = fn
}

func (e *Engine) emit(evt stats.Event) {
	e.collector.Apply(evt)
	if e.observer != nil {
		e.observer(evt)
	}
}

// Run executes one sequential archiving pass. Per-message failures are
// counted and logged but never abort the run; failures before any
// write (watermark read, enumeration) and at watermark persistence are
// fatal and returned alongside the partial report.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	started := time.Now()
	logger := e.logger.With("run", uuid.NewString())

	mark, err := e.readWatermark(ctx)
	if err != nil {
		return Report{}, err
	}
	logger.Info("starting archive run",
		"watermark", mark,
		"granularity", e.opts.Granularity,
		"mode", e.opts.Mode,
		"dryRun", e.opts.DryRun)

	candidates, err := e.enumerate(ctx, mark)
	if err != nil {
		return Report{}, err
	}
	e.emit(stats.Event{Type: stats.EventTypeEnumerated, Count: len(candidates)})
	logger.Info("candidates selected", "count", len(candidates))

	run := cache.New(e.store)
	if err := e.plan(ctx, run, candidates); err != nil {
		return Report{}, err
	}

	var newMark int64
	for _, msg := range candidates {
		advanced, err := e.process(ctx, run, msg)
		if err != nil {
			e.emit(stats.Event{Type: stats.EventTypeError, MessageID: msg.ID, Err: err})
			logger.Error("message failed", "messageID", msg.ID, "err", err)
			continue
		}
		if advanced {
			if ts := msg.ReceivedAt.Unix(); ts > newMark {
				newMark = ts
			}
		}
	}

	report := Report{
		Summary:   e.collector.Snapshot(),
		Watermark: mark,
	}

	if newMark > 0 && !e.opts.DryRun {
		if err := e.marks.Set(ctx, e.opts.Key, strconv.FormatInt(newMark, 10)); err != nil {
			report.Duration = time.Since(started)
			return report, fmt.Errorf("%w: %w", ErrPersistWatermark, err)
		}
		report.Watermark = newMark
		report.Advanced = true
	}

	report.Duration = time.Since(started)
	report.Summary = e.collector.Snapshot()

	attrs := append(report.Summary.LogAttrs(),
		"duration", report.Duration,
		"watermark", report.Watermark,
		"advanced", report.Advanced)
	logger.Info("archive run complete", attrs...)
	return report, nil
}

// readWatermark returns the stored watermark, falling back to the
// configured initial value when nothing is stored yet.
func (e *Engine) readWatermark(ctx context.Context) (int64, error) {
	value, ok, err := e.marks.Get(ctx, e.opts.Key)
	if err != nil {
		return 0, fmt.Errorf("engine: read watermark: %w", err)
	}
	if !ok {
		if e.opts.InitialWatermark < 0 {
			return 0, ErrNoWatermark
		}
		return e.opts.InitialWatermark, nil
	}
	mark, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("engine: stored watermark %q is not an epoch value: %w", value, err)
	}
	return mark, nil
}

// enumerate fetches candidates from the source and re-filters them
// strictly by receipt time. The source's date bound is advisory and
// may be day-coarse; the strict comparison here is what guarantees a
// message is handled at most once across runs.
func (e *Engine) enumerate(ctx context.Context, mark int64) ([]model.Message, error) {
	found, err := e.source.Search(ctx, e.opts.Query, time.Unix(mark, 0))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerate, err)
	}

	candidates := found[:0]
	for _, msg := range found {
		if msg.ReceivedAt.Unix() > mark {
			candidates = append(candidates, msg)
		}
	}
	return candidates, nil
}

// plan derives the distinct archive paths of the batch and preloads
// the existence cache for exactly those paths.
func (e *Engine) plan(ctx context.Context, run *cache.Cache, candidates []model.Message) error {
	seen := make(map[string]struct{})
	var paths []string
	for _, msg := range candidates {
		path, err := archive.PathFor(msg.ReceivedAt.In(e.opts.Location), e.opts.Granularity)
		if err != nil {
			return err
		}
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}
	if err := run.Preload(ctx, paths); err != nil {
		return fmt.Errorf("engine: preload archive paths: %w", err)
	}
	return nil
}

// process handles one candidate. The returned bool reports whether the
// message's receipt time participates in the new watermark: true for
// save and replace outcomes, false for skips.
func (e *Engine) process(ctx context.Context, run *cache.Cache, msg model.Message) (bool, error) {
	local := msg.ReceivedAt.In(e.opts.Location)

	path, err := archive.PathFor(local, e.opts.Granularity)
	if err != nil {
		return false, err
	}
	name := archive.Filename(local, msg.Subject)

	existing, exists := run.Lookup(path, name)
	action, err := archive.Resolve(exists, e.opts.Mode)
	if err != nil {
		return false, err
	}

	switch action {
	case archive.ActionSkip:
		e.emit(stats.Event{Type: stats.EventTypeSkipped, MessageID: msg.ID})
		e.logger.Debug("skipping duplicate", "messageID", msg.ID, "path", path, "name", name)
		return false, nil

	case archive.ActionReplace:
		if e.opts.DryRun {
			e.emit(stats.Event{Type: stats.EventTypeDryRun, MessageID: msg.ID})
			return false, nil
		}
		if err := e.store.Trash(ctx, existing); err != nil {
			return false, fmt.Errorf("trash existing file %s/%s: %w", path, name, err)
		}
		run.Forget(path, name)
		if err := e.write(ctx, run, msg, path, name); err != nil {
			return false, err
		}
		e.emit(stats.Event{Type: stats.EventTypeReplaced, MessageID: msg.ID})
		e.logger.Debug("replaced archived file", "messageID", msg.ID, "path", path, "name", name, "hash", msg.Hash)
		return true, nil

	default: // archive.ActionSave
		if e.opts.DryRun {
			run.Record(path, name, "dry-run")
			e.emit(stats.Event{Type: stats.EventTypeDryRun, MessageID: msg.ID})
			return false, nil
		}
		if err := e.write(ctx, run, msg, path, name); err != nil {
			return false, err
		}
		e.emit(stats.Event{Type: stats.EventTypeSaved, MessageID: msg.ID})
		e.logger.Debug("archived message", "messageID", msg.ID, "path", path, "name", name, "hash", msg.Hash)
		return true, nil
	}
}

// write stores the raw message at path/name, stamps its modified time
// with the receipt time and records it in the cache.
func (e *Engine) write(ctx context.Context, run *cache.Cache, msg model.Message, path, name string) error {
	folder, ok := run.Folder(path)
	if !ok {
		created, err := store.EnsureFolder(ctx, e.store, path)
		if err != nil {
			return fmt.Errorf("ensure folder %s: %w", path, err)
		}
		run.SetFolder(path, created)
		folder = created
	}

	handle, err := e.store.CreateFile(ctx, folder, name, msg.Raw)
	if err != nil {
		return fmt.Errorf("create file %s/%s: %w", path, name, err)
	}
	run.Record(path, name, handle)

	if err := e.store.SetModifiedTime(ctx, handle, msg.ReceivedAt); err != nil {
		return fmt.Errorf("set modified time on %s/%s: %w", path, name, err)
	}
	return nil
}
