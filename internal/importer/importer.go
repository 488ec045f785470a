// Package importer drives the bulk import of X bookmarks into a Raindrop
// collection: page by page from the source API, one ledger persist per page,
// so a crash loses at most one page of progress and a failed run resumes
// from its stored cursor.
package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/user/rainhub/internal/raindrop"
	"github.com/user/rainhub/internal/state"
	"github.com/user/rainhub/internal/twitter"
)

// Source fetches one page of bookmarks from the external API.
type Source interface {
	FetchPage(cursor string, pageSize int) (*twitter.Page, error)
}

// Destination is the slice of the Raindrop client the importer writes
// through.
type Destination interface {
	Lister
	CreateRaindrop(r raindrop.NewRaindrop) (int64, error)
	ResolveCollection(title string) (*raindrop.Collection, error)
}

// Options tunes one import invocation.
type Options struct {
	Collection   string // destination collection title
	PageSize     int    // bookmarks per source page
	MaxItems     int    // stop after this many fetched records, 0 = unlimited
	DupScanPages int    // page cap for the duplicate scan
}

// Summary is what callers see after an invocation.
type Summary struct {
	RunID      string
	Status     state.Status
	Collection string
	Progress   string // "{pct}% ({done}/{fetched})"
	Duration   string
	Fetched    int
	Saved      int
	Skipped    int
	Failed     int
	ErrorCount int
	Message    string // set on informational short-circuits
}

type Importer struct {
	source Source
	dest   Destination
	store  *state.Store
	log    logrus.FieldLogger
	opts   Options

	now func() time.Time
}

func New(source Source, dest Destination, store *state.Store, log logrus.FieldLogger, opts Options) *Importer {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.DupScanPages <= 0 {
		opts.DupScanPages = 100
	}
	return &Importer{
		source: source,
		dest:   dest,
		store:  store,
		log:    log,
		opts:   opts,
		now:    time.Now,
	}
}

// Run starts a new import or resumes one by ID. Starting while another run
// is active is not an error: the active run's summary comes back with
// resume instructions instead.
func (imp *Importer) Run(resumeID string) (*Summary, error) {
	run, short, err := imp.resolveRun(resumeID)
	if err != nil {
		return nil, err
	}
	if short != nil {
		return short, nil
	}
	return imp.drive(run)
}

// resolveRun decides new-vs-resume. A non-nil Summary short-circuits the
// invocation without entering the page loop.
func (imp *Importer) resolveRun(resumeID string) (*state.Run, *Summary, error) {
	if resumeID != "" {
		run, err := imp.store.Load(resumeID)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot resume import %q: %w", resumeID, err)
		}
		if run.Status == state.StatusCompleted {
			s := imp.summarize(run)
			s.Message = "import already completed"
			return nil, s, nil
		}
		run.Status = state.StatusRunning
		imp.log.WithField("run_id", run.ID).Info("resuming import run")
		return run, nil, nil
	}

	// Refuse a second concurrent import; hand back the active run instead.
	// Only ErrNotFound means the ledger is clear; any other error leaves the
	// at-most-one-running guarantee unverifiable, so bail out.
	active, err := imp.store.FindActive()
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return nil, nil, fmt.Errorf("cannot check for an active run: %w", err)
	}
	if active != nil {
		s := imp.summarize(active)
		s.Message = fmt.Sprintf(
			"an import is already running; resume it with --resume %s or wait for it to finish", active.ID)
		return nil, s, nil
	}

	col, err := imp.dest.ResolveCollection(imp.opts.Collection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve collection %q: %w", imp.opts.Collection, err)
	}

	existing, err := ScanExistingIDs(imp.dest, col.ID, imp.opts.DupScanPages, imp.log)
	if err != nil {
		return nil, nil, fmt.Errorf("duplicate scan failed: %w", err)
	}

	run, err := imp.store.Create(col.ID, col.Title)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range existing {
		run.MarkProcessed(id)
	}
	imp.log.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"collection": col.Title,
		"known_ids":  len(run.ProcessedIDs),
	}).Info("starting import run")
	return run, nil, nil
}

// drive is the page loop. Per-record write failures are logged and counted
// but never abort the page; page fetch and persist failures end the run as
// failed while keeping it resumable.
func (imp *Importer) drive(run *state.Run) (*Summary, error) {
	if err := imp.store.Save(run); err != nil {
		return nil, imp.fail(run, err)
	}

	for {
		page, err := imp.source.FetchPage(run.NextCursor, imp.opts.PageSize)
		if err != nil {
			return nil, imp.fail(run, err)
		}
		if len(page.Tweets) == 0 {
			break
		}

		for _, t := range page.Tweets {
			if run.IsProcessed(t.ID) {
				run.TotalSkipped++
				continue
			}

			payload := BuildRaindrop(t, page.Users, page.Media, run.CollectionID)
			if _, err := imp.dest.CreateRaindrop(payload); err != nil {
				run.AddError(t.ID, err.Error(), imp.now())
				run.TotalFailed++
				imp.log.WithFields(logrus.Fields{
					"run_id":   run.ID,
					"tweet_id": t.ID,
				}).WithError(err).Warn("failed to save bookmark, continuing")
				continue
			}
			run.MarkProcessed(t.ID)
			run.TotalSaved++
		}

		run.TotalFetched += len(page.Tweets)
		run.NextCursor = page.NextCursor
		if err := imp.store.Save(run); err != nil {
			return nil, imp.fail(run, err)
		}

		imp.log.WithFields(logrus.Fields{
			"run_id":  run.ID,
			"fetched": run.TotalFetched,
			"saved":   run.TotalSaved,
			"skipped": run.TotalSkipped,
			"failed":  run.TotalFailed,
		}).Info("page processed")

		if run.NextCursor == "" {
			break
		}
		if imp.opts.MaxItems > 0 && run.TotalFetched >= imp.opts.MaxItems {
			imp.log.WithField("run_id", run.ID).Info("per-run item cap reached")
			break
		}
	}

	run.Status = state.StatusCompleted
	run.NextCursor = ""
	if err := imp.store.Save(run); err != nil {
		return nil, imp.fail(run, err)
	}
	return imp.summarize(run), nil
}

// fail marks the run failed and persists best-effort so the ID stays valid
// for resume, then wraps the cause with resume instructions.
func (imp *Importer) fail(run *state.Run, cause error) error {
	run.Status = state.StatusFailed
	if err := imp.store.Save(run); err != nil {
		imp.log.WithField("run_id", run.ID).WithError(err).Error("could not persist failed state")
	}
	return fmt.Errorf("import run %s failed: %w (resume with --resume %s)", run.ID, cause, run.ID)
}

func (imp *Importer) summarize(run *state.Run) *Summary {
	return &Summary{
		RunID:      run.ID,
		Status:     run.Status,
		Collection: run.CollectionName,
		Progress:   run.Progress(),
		Duration:   run.Duration().Round(time.Second).String(),
		Fetched:    run.TotalFetched,
		Saved:      run.TotalSaved,
		Skipped:    run.TotalSkipped,
		Failed:     run.TotalFailed,
		ErrorCount: len(run.Errors),
	}
}
