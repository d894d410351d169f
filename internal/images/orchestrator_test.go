package images

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagehub/imagehub_server/internal/apperr"
	"github.com/imagehub/imagehub_server/internal/storage"
	"github.com/imagehub/imagehub_server/internal/transform"
)

// fakeBackend is an in-memory Backend with injectable read failures.
type fakeBackend struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failures map[string]error // key -> forced read error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		objects:  make(map[string][]byte),
		failures: make(map[string]error),
	}
}

func (b *fakeBackend) Read(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.failures[key]; ok {
		return nil, err
	}
	data, ok := b.objects[key]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "object %q not found", key)
	}
	return data, nil
}

func (b *fakeBackend) Write(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *fakeBackend) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for key := range b.objects {
		keys = append(keys, key)
	}
	return keys, nil
}

func (b *fakeBackend) CheckCredentials(ctx context.Context) error { return nil }

func (b *fakeBackend) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// countingEngine returns a fixed payload and counts invocations.
type countingEngine struct {
	mu     sync.Mutex
	calls  int
	output []byte
	refuse map[string]bool // formats reported as unencodable
}

func (e *countingEngine) Apply(ctx context.Context, data []byte, ops []transform.Operation) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.output, nil
}

func (e *countingEngine) Supports(format string) bool {
	return !e.refuse[format]
}

func (e *countingEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestOrchestrator(backend storage.Backend, engine transform.Engine) *Orchestrator {
	registry := storage.NewRegistry()
	registry.Register("test", backend)
	return NewOrchestrator(registry, engine)
}

func waitForKey(t *testing.T, backend *fakeBackend, key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if backend.has(key) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("key %q never stored", key)
}

func TestGetImage_MissThenHit(t *testing.T) {
	// given
	backend := newFakeBackend()
	backend.objects["pics/cat.jpg"] = []byte("original-bytes")
	engine := &countingEngine{output: []byte("transformed-bytes")}
	orchestrator := newTestOrchestrator(backend, engine)
	params := map[string]string{"width": "600", "height": "800", "format": "webp"}

	// when: first call is a miss and recomputes
	first, ext, err := orchestrator.GetImage(context.Background(), "test", "pics/cat.jpg", params)

	// then
	require.NoError(t, err)
	assert.Equal(t, "webp", ext)
	assert.Equal(t, []byte("transformed-bytes"), first)
	assert.Equal(t, 1, engine.callCount())

	// the fire-and-forget store lands under the derived key
	waitForKey(t, backend, "pics/cat-h-800-w-600.webp")

	// when: identical request again
	second, ext, err := orchestrator.GetImage(context.Background(), "test", "pics/cat.jpg", params)

	// then: served from cache, engine untouched
	require.NoError(t, err)
	assert.Equal(t, "webp", ext)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, engine.callCount())
}

func TestGetImage_MissingExtensionRejectedBeforeStorage(t *testing.T) {
	backend := newFakeBackend()
	engine := &countingEngine{output: []byte("x")}
	orchestrator := newTestOrchestrator(backend, engine)

	_, _, err := orchestrator.GetImage(context.Background(), "test", "noext",
		map[string]string{"width": "10"})

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
	assert.Equal(t, 0, engine.callCount())
}

func TestGetImage_EmptyParamsRejected(t *testing.T) {
	backend := newFakeBackend()
	backend.objects["cat.jpg"] = []byte("original")
	orchestrator := newTestOrchestrator(backend, &countingEngine{})

	_, _, err := orchestrator.GetImage(context.Background(), "test", "cat.jpg",
		map[string]string{})

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
}

func TestGetImage_MissingOriginalIsTerminal(t *testing.T) {
	backend := newFakeBackend()
	orchestrator := newTestOrchestrator(backend, &countingEngine{output: []byte("x")})

	_, _, err := orchestrator.GetImage(context.Background(), "test", "gone.jpg",
		map[string]string{"width": "10"})

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetImage_BackendFailureOnCacheReadPropagates(t *testing.T) {
	backend := newFakeBackend()
	backend.objects["cat.jpg"] = []byte("original")
	backend.failures["cat-w-10.jpg"] = apperr.New(apperr.KindBackend, "connection reset")
	engine := &countingEngine{output: []byte("x")}
	orchestrator := newTestOrchestrator(backend, engine)

	_, _, err := orchestrator.GetImage(context.Background(), "test", "cat.jpg",
		map[string]string{"width": "10"})

	// transient failure must not fall into the recompute path
	require.Error(t, err)
	assert.Equal(t, apperr.KindBackend, apperr.KindOf(err))
	assert.Equal(t, 0, engine.callCount())
}

func TestGetImage_UnknownBackend(t *testing.T) {
	orchestrator := newTestOrchestrator(newFakeBackend(), &countingEngine{})

	_, _, err := orchestrator.GetImage(context.Background(), "nope", "cat.jpg",
		map[string]string{"width": "10"})

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetImage_FormatOutsideEngineCoverageRejected(t *testing.T) {
	backend := newFakeBackend()
	backend.objects["cat.jpg"] = []byte("original")
	engine := &countingEngine{output: []byte("x"), refuse: map[string]bool{"webp": true}}
	orchestrator := newTestOrchestrator(backend, engine)

	_, _, err := orchestrator.GetImage(context.Background(), "test", "cat.jpg",
		map[string]string{"width": "10", "format": "webp"})

	// a format the engine cannot encode is a bad argument, not an engine fault
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
	assert.Equal(t, 0, engine.callCount())
}

func TestGetImage_OutputExtensionDefaultsToSource(t *testing.T) {
	backend := newFakeBackend()
	backend.objects["cat.jpg"] = []byte("original")
	engine := &countingEngine{output: []byte("out")}
	orchestrator := newTestOrchestrator(backend, engine)

	_, ext, err := orchestrator.GetImage(context.Background(), "test", "cat.jpg",
		map[string]string{"width": "10"})

	require.NoError(t, err)
	assert.Equal(t, "jpg", ext)
}

func TestTransformAndStore_OverwritesWithoutCacheCheck(t *testing.T) {
	// given: a stale cached object already exists under the derived key
	backend := newFakeBackend()
	backend.objects["cat.jpg"] = []byte("original")
	backend.objects["cat-w-10.jpg"] = []byte("stale")
	engine := &countingEngine{output: []byte("fresh")}
	orchestrator := newTestOrchestrator(backend, engine)

	width := uint(10)
	spec := transform.Spec{Width: &width}

	// when
	key, err := orchestrator.TransformAndStore(context.Background(), backend, "cat.jpg", spec)

	// then: batch mode always recomputes and overwrites
	require.NoError(t, err)
	assert.Equal(t, "cat-w-10.jpg", key)
	assert.Equal(t, 1, engine.callCount())
	assert.Equal(t, []byte("fresh"), backend.objects["cat-w-10.jpg"])
}
