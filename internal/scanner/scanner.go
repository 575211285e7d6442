package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
)

// Result summarizes a completed library scan.
type Result struct {
	ScannedFiles int
	Added        int
	Changed      int
	Rediscovered int
	Unchanged    int
	Missing      int
	Skipped      int
	Duration     time.Duration
}

// Store is the catalog surface the scanner needs.
type Store interface {
	PathIndex(ctx context.Context) (map[string]library.PathInfo, error)
	NewScannedFile(ctx context.Context, path string, mediaType library.MediaType, hash string, size int64, modTime time.Time) (*library.Item, error)
	GetByPath(ctx context.Context, path string) (*library.Item, error)
	FindByHash(ctx context.Context, hash, excludePath string) ([]*library.Item, error)
	RequeueChanged(ctx context.Context, id int64, hash string, size int64, modTime time.Time) error
	Rediscover(ctx context.Context, id int64, hash string, size int64, modTime time.Time) error
	MarkMissing(ctx context.Context, paths []string) (int64, error)
}

// Scanner walks the configured library roots and reconciles the catalog
// with what it finds on disk.
type Scanner struct {
	cfg        *config.Config
	store      Store
	classifier *Classifier
	logger     *slog.Logger

	mu       sync.Mutex
	scanning bool
}

// New constructs a scanner for the given configuration and catalog store.
func New(cfg *config.Config, store Store, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:        cfg,
		store:      store,
		classifier: NewClassifier(cfg.Library),
		logger:     logging.NewComponentLogger(logger, "scanner"),
	}
}

type candidate struct {
	path      string
	mediaType library.MediaType
	size      int64
	modTime   time.Time
}

// Scan walks every configured root once. Concurrent invocations collapse:
// a second call while a scan is running returns immediately with an empty
// result so watch events cannot stack scans.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		s.logger.Debug("scan already in progress, skipping")
		return Result{}, nil
	}
	s.scanning = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	started := time.Now()
	result := Result{}

	index, err := s.store.PathIndex(ctx)
	if err != nil {
		return result, fmt.Errorf("load path index: %w", err)
	}

	candidates, skipped, err := s.collectCandidates(ctx)
	if err != nil {
		return result, err
	}
	result.ScannedFiles = len(candidates)
	result.Skipped = skipped

	seen := make(map[string]struct{}, len(candidates))
	var toHash []candidate
	for _, cand := range candidates {
		seen[cand.path] = struct{}{}
		known, ok := index[cand.path]
		if ok && known.SizeBytes == cand.size && known.ModTime.Equal(cand.modTime.UTC()) {
			result.Unchanged++
			continue
		}
		toHash = append(toHash, cand)
	}

	hashes, err := s.hashCandidates(ctx, toHash)
	if err != nil {
		return result, err
	}

	for _, cand := range toHash {
		hash, ok := hashes[cand.path]
		if !ok {
			// The file disappeared between walk and hash.
			result.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		known, inIndex := index[cand.path]
		switch {
		case inIndex && known.ContentHash == hash:
			result.Unchanged++
		case inIndex:
			if err := s.store.RequeueChanged(ctx, known.ID, hash, cand.size, cand.modTime); err != nil {
				return result, fmt.Errorf("requeue %s: %w", cand.path, err)
			}
			s.logger.Info("file changed, requeued",
				logging.String(logging.FieldPath, cand.path),
				logging.Int64(logging.FieldItemID, known.ID))
			result.Changed++
		default:
			added, rediscovered, err := s.admit(ctx, cand, hash)
			if err != nil {
				return result, err
			}
			result.Added += added
			result.Rediscovered += rediscovered
		}
	}

	var vanished []string
	for path := range index {
		if _, ok := seen[path]; !ok {
			vanished = append(vanished, path)
		}
	}
	if len(vanished) > 0 {
		marked, err := s.store.MarkMissing(ctx, vanished)
		if err != nil {
			return result, fmt.Errorf("mark missing: %w", err)
		}
		result.Missing = int(marked)
		s.logger.Info("marked vanished files missing", logging.Int("count", int(marked)))
	}

	result.Duration = time.Since(started)
	s.logger.Info("scan complete",
		logging.Int("scanned", result.ScannedFiles),
		logging.Int("added", result.Added),
		logging.Int("changed", result.Changed),
		logging.Int("rediscovered", result.Rediscovered),
		logging.Int("missing", result.Missing),
		logging.Duration("duration", result.Duration))
	return result, nil
}

// admit inserts a path not present in the live index. A previously missing
// item whose file reappeared is requeued instead of duplicated.
func (s *Scanner) admit(ctx context.Context, cand candidate, hash string) (added, rediscovered int, err error) {
	existing, err := s.store.GetByPath(ctx, cand.path)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup %s: %w", cand.path, err)
	}
	if existing != nil {
		if err := s.store.Rediscover(ctx, existing.ID, hash, cand.size, cand.modTime); err != nil {
			return 0, 0, fmt.Errorf("rediscover %s: %w", cand.path, err)
		}
		s.logger.Info("missing file reappeared",
			logging.String(logging.FieldPath, cand.path),
			logging.Int64(logging.FieldItemID, existing.ID))
		return 0, 1, nil
	}

	item, err := s.store.NewScannedFile(ctx, cand.path, cand.mediaType, hash, cand.size, cand.modTime)
	if err != nil {
		return 0, 0, fmt.Errorf("insert %s: %w", cand.path, err)
	}
	s.logger.Info("new file cataloged",
		logging.String(logging.FieldPath, cand.path),
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("media_type", string(cand.mediaType)))

	if duplicates, err := s.store.FindByHash(ctx, hash, cand.path); err == nil && len(duplicates) > 0 {
		s.logger.Warn("duplicate content detected",
			logging.String(logging.FieldPath, cand.path),
			logging.String("duplicate_of", duplicates[0].Path))
	}
	return 1, 0, nil
}

func (s *Scanner) collectCandidates(ctx context.Context) ([]candidate, int, error) {
	var candidates []candidate
	skipped := 0

	for _, root := range s.cfg.Library.Roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if os.IsNotExist(walkErr) && path == root {
					s.logger.Warn("library root does not exist", logging.String(logging.FieldPath, root))
					return filepath.SkipDir
				}
				s.logger.Warn("walk error", logging.String(logging.FieldPath, path), logging.Error(walkErr))
				skipped++
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.IsDir() {
				if s.classifier.Excluded(path) && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if s.classifier.Excluded(path) {
				skipped++
				return nil
			}
			mediaType, ok := s.classifier.Classify(path)
			if !ok {
				return nil
			}
			info, err := entry.Info()
			if err != nil {
				s.logger.Warn("stat failed", logging.String(logging.FieldPath, path), logging.Error(err))
				skipped++
				return nil
			}
			candidates = append(candidates, candidate{
				path:      path,
				mediaType: mediaType,
				size:      info.Size(),
				modTime:   info.ModTime().UTC(),
			})
			return nil
		})
		if err != nil {
			return nil, skipped, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return candidates, skipped, nil
}

// hashCandidates computes content hashes with a bounded worker pool.
// Unreadable files are logged and omitted from the result map.
func (s *Scanner) hashCandidates(ctx context.Context, candidates []candidate) (map[string]string, error) {
	if len(candidates) == 0 {
		return map[string]string{}, nil
	}

	workers := s.cfg.Scanner.HashWorkers
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	hashes := make(map[string]string, len(candidates))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, cand := range candidates {
		cand := cand
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			hash, err := HashFile(cand.path)
			if err != nil {
				s.logger.Warn("hash failed", logging.String(logging.FieldPath, cand.path), logging.Error(err))
				return nil
			}
			mu.Lock()
			hashes[cand.path] = hash
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}

// HashFile returns the hex SHA-256 digest of a file's contents.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
