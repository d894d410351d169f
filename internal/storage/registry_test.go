package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

func TestRegistry_GetUnknownBackend(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("missing")

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBuildRegistry_ResolvesVariants(t *testing.T) {
	configs := map[string]BackendConfig{
		"disk":   {Type: TypeLocal, Path: t.TempDir()},
		"push":   {Type: TypeFTP, Host: "ftp.example.com", Username: "u", Password: "p"},
		"secure": {Type: TypeSFTP, Host: "sftp.example.com", Username: "u", Password: "p"},
	}

	registry, err := BuildRegistry(configs)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"disk", "push", "secure"}, registry.Names())

	disk, err := registry.Get("disk")
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, disk)

	push, err := registry.Get("push")
	require.NoError(t, err)
	assert.IsType(t, &FTPStorage{}, push)

	secure, err := registry.Get("secure")
	require.NoError(t, err)
	assert.IsType(t, &SFTPStorage{}, secure)
}

func TestBuildRegistry_UnknownTypeFails(t *testing.T) {
	_, err := BuildRegistry(map[string]BackendConfig{
		"weird": {Type: "carrier-pigeon"},
	})

	require.Error(t, err)
}
