package images

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/imagehub/imagehub_server/internal/apperr"
	"github.com/imagehub/imagehub_server/internal/storage"
	"github.com/imagehub/imagehub_server/internal/transform"
)

const cacheStoreTimeout = 30 * time.Second

// Orchestrator runs the read-through cache flow: serve the derived key when
// present, otherwise fetch the original, transform, store the result under
// the derived key and serve it. The storage backend is the only memo; no
// state is kept between calls.
type Orchestrator struct {
	registry *storage.Registry
	engine   transform.Engine
}

func NewOrchestrator(registry *storage.Registry, engine transform.Engine) *Orchestrator {
	return &Orchestrator{registry: registry, engine: engine}
}

// SupportsFormat reports whether the wired engine can encode the extension.
func (o *Orchestrator) SupportsFormat(ext string) bool {
	return o.engine.Supports(ext)
}

// GetImage returns the transformed bytes and the output extension for a
// source path and raw parameter map.
func (o *Orchestrator) GetImage(ctx context.Context, backendName, path string, rawParams map[string]string) ([]byte, string, error) {
	_, _, srcExt, ok := transform.SplitPath(path)
	if !ok {
		return nil, "", apperr.New(apperr.KindInvalidParameter,
			"path %q has no extension", path)
	}

	spec, err := transform.ParseSpec(rawParams)
	if err != nil {
		return nil, "", err
	}
	if spec.Empty() {
		return nil, "", apperr.New(apperr.KindInvalidParameter, "query parameters required")
	}

	backend, err := o.registry.Get(backendName)
	if err != nil {
		return nil, "", err
	}

	outExt := spec.Format
	if outExt == "" {
		outExt = srcExt
	}
	if !o.engine.Supports(outExt) {
		return nil, "", apperr.New(apperr.KindInvalidParameter,
			"output format %q is not supported by the configured engine", outExt)
	}
	key, _ := transform.CacheKey(path, outExt, spec)

	// Cache hit is the common, cheap path.
	cached, err := backend.Read(ctx, key)
	if err == nil {
		return cached, outExt, nil
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, "", err
	}

	original, err := backend.Read(ctx, path)
	if err != nil {
		// Absence of the original is terminal; no recompute possible.
		return nil, "", err
	}

	transformed, err := o.engine.Apply(ctx, original, spec.Operations(outExt))
	if err != nil {
		return nil, "", err
	}

	// Best-effort memoization: the response never waits on, or fails with,
	// the cache write.
	go o.storeAsync(backend, key, transformed)

	return transformed, outExt, nil
}

func (o *Orchestrator) storeAsync(backend storage.Backend, key string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheStoreTimeout)
	defer cancel()

	if err := backend.Write(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache store failed")
		return
	}
	log.Debug().Str("key", key).Int("bytes", len(data)).Msg("cache stored")
}

// TransformAndStore is the batch path: always recompute from the original and
// overwrite the derived key, never consulting the cache first. Returns the
// derived key.
func (o *Orchestrator) TransformAndStore(ctx context.Context, backend storage.Backend, path string, spec transform.Spec) (string, error) {
	_, _, srcExt, ok := transform.SplitPath(path)
	if !ok {
		return "", apperr.New(apperr.KindInvalidParameter, "path %q has no extension", path)
	}

	outExt := spec.Format
	if outExt == "" {
		outExt = srcExt
	}
	if !o.engine.Supports(outExt) {
		return "", apperr.New(apperr.KindInvalidParameter,
			"output format %q is not supported by the configured engine", outExt)
	}
	key, _ := transform.CacheKey(path, outExt, spec)

	original, err := backend.Read(ctx, path)
	if err != nil {
		return "", err
	}

	transformed, err := o.engine.Apply(ctx, original, spec.Operations(outExt))
	if err != nil {
		return "", err
	}

	if err := backend.Write(ctx, key, transformed); err != nil {
		return "", err
	}
	return key, nil
}
