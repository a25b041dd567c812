// Package storage owns the on-disk layout of finished artifacts. Metadata
// lives in the file_records table; this package only moves bytes.
package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type ArtifactStore struct {
	root string
}

func NewArtifactStore(root string) (*ArtifactStore, error) {
	if root == "" {
		return nil, errors.New("artifact storage root cannot be blank")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(err, "creating artifact storage root")
	}
	return &ArtifactStore{root: root}, nil
}

// PathFor returns the relative storage path for a record UUID. Artifacts are
// fanned out by the first two characters of the UUID to keep directories small.
func (s *ArtifactStore) PathFor(uuid string) string {
	return filepath.Join(uuid[:2], uuid)
}

// Save streams r into relPath. The write lands in a temp file first and is
// renamed into place, so a failed save never leaves a partial artifact behind.
func (s *ArtifactStore) Save(relPath string, r io.Reader) (int64, error) {
	w, err := s.Create(relPath)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(w, r)
	if err != nil {
		w.Abort()
		return 0, errors.Wrap(err, "writing artifact")
	}
	if err := w.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

// Create opens a staged writer for relPath. Nothing is visible at relPath
// until Commit.
func (s *ArtifactStore) Create(relPath string) (*ArtifactWriter, error) {
	final := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(final), 0755); err != nil {
		return nil, errors.Wrap(err, "creating artifact directory")
	}
	f, err := os.CreateTemp(filepath.Dir(final), filepath.Base(final)+".tmp-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating artifact temp file")
	}
	return &ArtifactWriter{f: f, final: final}, nil
}

func (s *ArtifactStore) Open(relPath string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.root, relPath))
	if err != nil {
		return nil, errors.Wrap(err, "opening artifact")
	}
	return f, nil
}

func (s *ArtifactStore) Size(relPath string) (int64, error) {
	info, err := os.Stat(filepath.Join(s.root, relPath))
	if err != nil {
		return 0, errors.Wrap(err, "stating artifact")
	}
	return info.Size(), nil
}

// Delete removes the artifact. Deleting an absent artifact is not an error.
func (s *ArtifactStore) Delete(relPath string) error {
	err := os.Remove(filepath.Join(s.root, relPath))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting artifact")
	}
	return nil
}

type ArtifactWriter struct {
	f     *os.File
	final string
	size  int64
}

func (w *ArtifactWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *ArtifactWriter) Size() int64 {
	return w.size
}

// Commit makes the artifact visible at its final path.
func (w *ArtifactWriter) Commit() error {
	if err := w.f.Close(); err != nil {
		return errors.Wrap(err, "closing artifact temp file")
	}
	if err := os.Rename(w.f.Name(), w.final); err != nil {
		_ = os.Remove(w.f.Name())
		return errors.Wrap(err, "renaming artifact into place")
	}
	return nil
}

// Abort discards the staged write.
func (w *ArtifactWriter) Abort() {
	_ = w.f.Close()
	_ = os.Remove(w.f.Name())
}
