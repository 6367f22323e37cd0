package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local keeps uploads in a directory served under PublicPath.
type Local struct {
	dir        string
	publicPath string
}

func NewLocal(dir, publicPath string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, publicPath: "/" + strings.Trim(publicPath, "/")}, nil
}

func (l *Local) Dir() string { return l.dir }

func (l *Local) Put(_ context.Context, key string, body io.ReadSeeker, _ int64, _ string) (string, error) {
	name := filepath.Base(key)
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, name)); err != nil {
		return "", err
	}
	return l.publicPath + "/" + name, nil
}
