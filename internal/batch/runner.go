package batch

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/imagehub/imagehub_server/internal/apperr"
	"github.com/imagehub/imagehub_server/internal/images"
	"github.com/imagehub/imagehub_server/internal/storage"
	"github.com/imagehub/imagehub_server/internal/transform"
)

// Runner executes batch transformations. Preconditions are checked
// synchronously so the caller sees registration, validation and listing
// failures before the token is handed out; the per-file work runs in the
// background with bounded fan-out.
type Runner struct {
	registry     *storage.Registry
	orchestrator *images.Orchestrator
	store        Store
	workers      int
}

func NewRunner(registry *storage.Registry, orchestrator *images.Orchestrator, store Store, workers int) *Runner {
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		registry:     registry,
		orchestrator: orchestrator,
		store:        store,
		workers:      workers,
	}
}

// RunDirectory resolves the file set via the backend's listing, then starts
// the background run. A listing failure is fatal and no progress record is
// created.
func (r *Runner) RunDirectory(ctx context.Context, token, backendName, dirPath string, rawParams map[string]string) error {
	backend, spec, err := r.preconditions(backendName, rawParams)
	if err != nil {
		return err
	}

	files, err := backend.List(ctx, dirPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return apperr.New(apperr.KindNotFound, "no files found under %q", dirPath)
	}

	return r.start(ctx, token, backend, files, spec)
}

// RunList starts the background run over an explicit file list.
func (r *Runner) RunList(ctx context.Context, token, backendName string, filePaths []string, rawParams map[string]string) error {
	backend, spec, err := r.preconditions(backendName, rawParams)
	if err != nil {
		return err
	}
	if len(filePaths) == 0 {
		return apperr.New(apperr.KindInvalidParameter, "file list must not be empty")
	}

	return r.start(ctx, token, backend, filePaths, spec)
}

func (r *Runner) preconditions(backendName string, rawParams map[string]string) (storage.Backend, transform.Spec, error) {
	backend, err := r.registry.Get(backendName)
	if err != nil {
		return nil, transform.Spec{}, err
	}

	spec, err := transform.ParseSpec(rawParams)
	if err != nil {
		return nil, transform.Spec{}, err
	}
	if spec.Empty() {
		return nil, transform.Spec{}, apperr.New(apperr.KindInvalidParameter,
			"transformations must not be empty")
	}
	if spec.Format != "" && !r.orchestrator.SupportsFormat(spec.Format) {
		return nil, transform.Spec{}, apperr.New(apperr.KindInvalidParameter,
			"output format %q is not supported by the configured engine", spec.Format)
	}

	return backend, spec, nil
}

func (r *Runner) start(ctx context.Context, token string, backend storage.Backend, files []string, spec transform.Spec) error {
	t := newTracker(token, r.store, uint(len(files)))
	if err := t.start(ctx); err != nil {
		return err
	}

	go r.run(token, t, backend, files, spec)
	return nil
}

// run processes every file with bounded parallelism. A failing file is
// recorded and the loop continues; there is no cancellation handle for a
// running token.
func (r *Runner) run(token string, t *tracker, backend storage.Backend, files []string, spec transform.Spec) {
	ctx := context.Background()

	log.Info().Str("token", token).Int("files", len(files)).Msg("batch run started")

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for _, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(file string) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := r.orchestrator.TransformAndStore(ctx, backend, file, spec)
			if err != nil {
				log.Warn().Err(err).Str("token", token).Str("file", file).Msg("batch file failed")
			}
			t.fileDone(ctx, file, err)
		}(file)
	}

	wg.Wait()
	log.Info().Str("token", token).Msg("batch run finished")
}
