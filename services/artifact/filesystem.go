// Package artifactsvc stores submission files on the local filesystem. The
// returned reference is a relative path; Resolve maps it onto the public
// uploads URL.
package artifactsvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type FilesystemStore struct {
	root    string
	baseURL string
}

var _ core.ArtifactStore = (*FilesystemStore)(nil)

func NewFilesystemStore(conf *core.Config) *FilesystemStore {
	return &FilesystemStore{
		root:    conf.Uploads.Dir,
		baseURL: strings.TrimRight(conf.Uploads.BaseURL, "/"),
	}
}

func (s *FilesystemStore) Store(ctx context.Context, principalID, assignmentID, filename string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	ref := filepath.Join(principalID, assignmentID, fmt.Sprintf("%d%s", time.Now().UnixNano(), ext))

	path := filepath.Join(s.root, ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating artifact directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating artifact file")
	}
	defer func() { _ = f.Close() }()

	if _, err = io.Copy(f, content); err != nil {
		_ = os.Remove(path)
		return "", errors.Wrap(err, "writing artifact file")
	}
	return filepath.ToSlash(ref), nil
}

func (s *FilesystemStore) Resolve(ref string) string {
	return s.baseURL + "/" + strings.TrimLeft(ref, "/")
}
