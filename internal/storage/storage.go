package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidFolder is returned for folders that escape the upload root.
var ErrInvalidFolder = errors.New("invalid upload folder")

// Store persists uploaded files and returns their public URL.
type Store interface {
	Save(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
}

// ObjectName builds a unique name of the form YYYYMMDD-uuid.ext, keeping
// the lowercased extension of filename.
func ObjectName(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s-%s%s", now.Format("20060102"), uuid.New().String(), ext)
}

func cleanFolder(folder string) (string, error) {
	trimmed := strings.TrimSpace(folder)
	if trimmed == "" {
		return "", nil
	}
	for _, part := range strings.Split(filepath.ToSlash(trimmed), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidFolder, folder)
		}
	}
	cleaned := strings.Trim(path.Clean("/"+filepath.ToSlash(trimmed)), "/")
	return cleaned, nil
}

// LocalStore writes uploads below a directory served as static files.
type LocalStore struct {
	root    string
	urlPath string
	now     func() time.Time
}

// NewLocalStore creates a LocalStore rooted at root whose files are served
// under urlPath.
func NewLocalStore(root, urlPath string) *LocalStore {
	return &LocalStore{
		root:    root,
		urlPath: "/" + strings.Trim(urlPath, "/"),
		now:     time.Now,
	}
}

// Root returns the directory uploads are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// Save copies r into root/folder under a fresh object name.
func (s *LocalStore) Save(ctx context.Context, folder, filename, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	folder, err := cleanFolder(folder)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := ObjectName(filename, s.now())
	target := filepath.Join(dir, name)
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return path.Join(s.urlPath, folder, name), nil
}

// Move records a file that MoveLocal relocated.
type Move struct {
	OldURL string
	NewURL string
}

// MoveLocal moves every file in root/from whose extension matches ext
// (case-insensitive, empty matches all) into root/to and returns the URL
// pairs under urlPath so stored references can be rewritten.
func MoveLocal(root, urlPath, from, to, ext string) ([]Move, error) {
	from, err := cleanFolder(from)
	if err != nil {
		return nil, err
	}
	to, err = cleanFolder(to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("%w: source and target are the same", ErrInvalidFolder)
	}

	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	srcDir := filepath.Join(root, filepath.FromSlash(from))
	dstDir := filepath.Join(root, filepath.FromSlash(to))
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", srcDir, err)
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dstDir, err)
	}

	base := "/" + strings.Trim(urlPath, "/")
	var moves []Move
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ext != "" && strings.ToLower(filepath.Ext(name)) != ext {
			continue
		}
		if err := os.Rename(filepath.Join(srcDir, name), filepath.Join(dstDir, name)); err != nil {
			return moves, fmt.Errorf("move %s: %w", name, err)
		}
		moves = append(moves, Move{
			OldURL: path.Join(base, from, name),
			NewURL: path.Join(base, to, name),
		})
	}
	return moves, nil
}
