package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Local keeps documents in a directory and serves them under URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
}

func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "storage: create %s", dir)
	}
	if urlPrefix == "" {
		urlPrefix = "/files"
	}
	return &Local{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Put writes body to Dir/key. The content type is not persisted.
func (l *Local) Put(ctx context.Context, key string, body io.Reader, size int64, _ string) (string, error) {
	clean, dst, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", eris.Wrapf(err, "storage: mkdir for %s", key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", eris.Wrapf(err, "storage: temp file for %s", key)
	}
	defer os.Remove(tmp.Name())

	src := body
	if size >= 0 {
		src = io.LimitReader(body, size+1)
	}
	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", eris.Wrapf(err, "storage: write %s", key)
	}
	if size >= 0 && n != size {
		return "", eris.Errorf("storage: %s: wrote %d bytes, expected %d", key, n, size)
	}
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "storage: put")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", eris.Wrapf(err, "storage: rename %s", key)
	}
	return l.URLPrefix + clean, nil
}

// Delete removes Dir/key.
func (l *Local) Delete(_ context.Context, key string) error {
	_, dst, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "storage: delete %s", key)
	}
	return nil
}

func (l *Local) resolve(key string) (clean, dst string, err error) {
	clean = path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", "", eris.Errorf("storage: invalid key %q", key)
	}
	return clean, filepath.Join(l.Dir, filepath.FromSlash(clean)), nil
}

// Ping checks the directory is still there.
func (l *Local) Ping(context.Context) error {
	if _, err := os.Stat(l.Dir); err != nil {
		return eris.Wrap(err, "storage: ping")
	}
	return nil
}
