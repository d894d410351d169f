package batch

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileError records one failed file within a batch run.
type FileError struct {
	FilePath string `json:"filePath"`
	Message  string `json:"errorMessage"`
}

// Progress is the snapshot consumers poll under the batch token.
type Progress struct {
	Done    uint        `json:"done"`
	Pending uint        `json:"pending"`
	Errors  []FileError `json:"errors"`
}

// Store persists progress snapshots keyed by token. The serialization format
// is the store's concern; the runner only sees snapshots.
type Store interface {
	Save(ctx context.Context, token string, progress Progress) error
	Get(ctx context.Context, token string) (Progress, error)
}

// tracker serializes counter mutation and snapshot persistence under
// concurrent file processing, saving the full snapshot after every file.
// Save failures are logged and do not stop the run.
type tracker struct {
	mu       sync.Mutex
	token    string
	store    Store
	progress Progress
}

func newTracker(token string, store Store, total uint) *tracker {
	return &tracker{
		token: token,
		store: store,
		progress: Progress{
			Pending: total,
			Errors:  []FileError{},
		},
	}
}

// start persists the initial snapshot; a rerun with the same token resets any
// previous record.
func (t *tracker) start(ctx context.Context) error {
	return t.store.Save(ctx, t.token, t.progress)
}

// fileDone records one finished file, at most once per file. Done counts
// successes only; failed files show up in Errors instead. The save happens
// under the same lock as the counter mutation so snapshots reach the store in
// counter order; an earlier snapshot can never overwrite a later one.
func (t *tracker) fileDone(ctx context.Context, filePath string, fileErr error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.progress.Pending > 0 {
		t.progress.Pending--
	}
	if fileErr != nil {
		t.progress.Errors = append(t.progress.Errors, FileError{
			FilePath: filePath,
			Message:  fileErr.Error(),
		})
	} else {
		t.progress.Done++
	}

	if err := t.store.Save(ctx, t.token, t.snapshotLocked()); err != nil {
		log.Warn().Err(err).Str("token", t.token).Msg("progress save failed")
	}
}

func (t *tracker) snapshotLocked() Progress {
	errs := make([]FileError, len(t.progress.Errors))
	copy(errs, t.progress.Errors)
	return Progress{
		Done:    t.progress.Done,
		Pending: t.progress.Pending,
		Errors:  errs,
	}
}
