package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextExtractor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.txt")
	require.NoError(t, os.WriteFile(path, []byte("Cuota\n05/09/2025\n150,00\n"), 0o600))

	e := NewPlainTextExtractor()

	text, err := e.Extract(context.Background(), path, "text/plain")
	require.NoError(t, err)
	assert.Contains(t, text, "05/09/2025")

	text, err = e.Extract(context.Background(), path, "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	_, err = e.Extract(context.Background(), path, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = e.Extract(context.Background(), filepath.Join(dir, "missing.txt"), "text/plain")
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Extract(cancelled, path, "text/plain")
	assert.ErrorIs(t, err, context.Canceled)
}
