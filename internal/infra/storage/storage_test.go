package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Put(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "/files/")
	require.NoError(t, err)

	body := "month,inflow\nJan,100\n"
	url, err := l.Put(context.Background(), "financials/2026/10/abc.csv", strings.NewReader(body), int64(len(body)), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "/files/financials/2026/10/abc.csv", url)

	got, err := os.ReadFile(filepath.Join(dir, "financials", "2026", "10", "abc.csv"))
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
	assert.NoError(t, l.Ping(context.Background()))
}

func TestLocal_PutRejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	_, err = l.Put(context.Background(), "../escape.pdf", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}

func TestLocal_PutSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "")
	require.NoError(t, err)

	_, err = l.Put(context.Background(), "a.pdf", strings.NewReader("short"), 10, "")
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "a.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"http://localhost:9000/docs/financials/2026/10/a%20b.pdf",
		objectURL("http://localhost:9000/", "docs", "financials/2026/10/a b.pdf"),
	)
}

func TestLocal_Delete(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.Put(ctx, "financials/2026/10/a.pdf", strings.NewReader("x"), 1, "")
	require.NoError(t, err)

	require.NoError(t, l.Delete(ctx, "financials/2026/10/a.pdf"))
	_, statErr := os.Stat(filepath.Join(dir, "financials", "2026", "10", "a.pdf"))
	assert.True(t, os.IsNotExist(statErr))

	assert.NoError(t, l.Delete(ctx, "financials/2026/10/a.pdf"), "missing key")
	assert.Error(t, l.Delete(ctx, "../outside.pdf"))
}
