package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/models"

	"github.com/rs/zerolog/log"
)

var (
	// ErrBucketNotFound is returned when a bucket directory or one of its input files is absent
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrStorageUnwritable is returned when the hierarchy root cannot be written
	ErrStorageUnwritable = errors.New("storage unwritable")
)

const (
	stagingPrefix = ".staging-"
	retiredPrefix = ".retired-"
)

// Store owns the on-disk hierarchy: {root}/{current_day,tomorrow,archive/{date}}
type Store struct {
	root string
}

// NewStore creates a store rooted at the hierarchy directory
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the hierarchy root directory
func (s *Store) Root() string {
	return s.root
}

// BucketDir returns the directory of a live bucket
func (s *Store) BucketDir(b models.Bucket) string {
	return filepath.Join(s.root, string(b))
}

// ArchiveRoot returns the directory holding archive snapshots
func (s *Store) ArchiveRoot() string {
	return filepath.Join(s.root, string(models.BucketArchive))
}

// ArchiveDir returns the snapshot directory for an ISO date
func (s *Store) ArchiveDir(date string) string {
	return filepath.Join(s.ArchiveRoot(), date)
}

// Exists reports whether the bucket directory is present
func (s *Store) Exists(b models.Bucket) (bool, error) {
	return dirExists(s.BucketDir(b))
}

// EnsureWritable creates the root and probes it with a temp file.
// Failure here is an environment misconfiguration and must abort the run.
func (s *Store) EnsureWritable() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrStorageUnwritable, s.root, err)
	}

	probe, err := os.CreateTemp(s.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: failed to write in %s: %v", ErrStorageUnwritable, s.root, err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("%w: failed to remove probe %s: %v", ErrStorageUnwritable, name, err)
	}

	return nil
}

// CleanStale removes staging and retired directories left behind by an interrupted run
func (s *Store) CleanStale() error {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", s.root, err)
	}

	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, stagingPrefix) && !strings.HasPrefix(name, retiredPrefix) {
			continue
		}
		path := filepath.Join(s.root, name)
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("Removed stale directory")
	}

	return nil
}

// Stage creates an empty staging directory for a bucket build.
// Staging lives under the root so the final swap is a same-volume rename.
func (s *Store) Stage(b models.Bucket) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create root: %w", err)
	}
	dir, err := os.MkdirTemp(s.root, stagingPrefix+string(b)+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}
	return dir, nil
}

// Commit swaps a fully written staging directory into the bucket slot
func (s *Store) Commit(stageDir string, b models.Bucket) error {
	if err := s.Replace(stageDir, s.BucketDir(b)); err != nil {
		return fmt.Errorf("failed to commit %s: %w", b, err)
	}
	return nil
}

// Discard removes a staging directory that will not be committed
func (s *Store) Discard(stageDir string) {
	if err := os.RemoveAll(stageDir); err != nil {
		log.Warn().Err(err).Str("path", stageDir).Msg("Failed to discard staging directory")
	}
}

// Replace moves src onto dst. An existing dst is set aside first and removed
// once src is in place; if the move fails the old dst is restored.
func (s *Store) Replace(src, dst string) error {
	exists, err := dirExists(dst)
	if err != nil {
		return err
	}
	if !exists {
		return Move(src, dst)
	}

	retired := filepath.Join(s.root, fmt.Sprintf("%s%s-%d", retiredPrefix, filepath.Base(dst), time.Now().UnixNano()))
	if err := os.Rename(dst, retired); err != nil {
		return fmt.Errorf("failed to set aside %s: %w", dst, err)
	}

	if err := Move(src, dst); err != nil {
		if restoreErr := os.Rename(retired, dst); restoreErr != nil {
			log.Error().Err(restoreErr).Str("path", dst).Msg("Failed to restore bucket after failed move")
		}
		return err
	}

	if err := os.RemoveAll(retired); err != nil {
		log.Warn().Err(err).Str("path", retired).Msg("Failed to remove retired bucket")
	}
	return nil
}

// ArchiveSnapshots lists the date keys of existing archive snapshots, sorted
func (s *Store) ArchiveSnapshots() ([]string, error) {
	entries, err := os.ReadDir(s.ArchiveRoot())
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}

	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// RemoveArchives deletes every archive snapshot
func (s *Store) RemoveArchives() (int, error) {
	dates, err := s.ArchiveSnapshots()
	if err != nil {
		return 0, err
	}
	for _, date := range dates {
		if err := os.RemoveAll(s.ArchiveDir(date)); err != nil {
			return 0, fmt.Errorf("failed to remove archive %s: %w", date, err)
		}
	}
	return len(dates), nil
}

// Move transfers ownership of a directory: rename on the same volume,
// copy then remove the source when crossing volumes.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", dst, err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}

	partial := dst + ".partial"
	if err := copyDir(src, partial); err != nil {
		os.RemoveAll(partial)
		return fmt.Errorf("failed to copy %s across volumes: %w", src, err)
	}
	if err := os.Rename(partial, dst); err != nil {
		os.RemoveAll(partial)
		return fmt.Errorf("failed to move %s into place: %w", partial, err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("failed to remove %s after copy: %w", src, err)
	}
	return nil
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.IsDir(), nil
}
