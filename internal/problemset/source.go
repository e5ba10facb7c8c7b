package problemset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuiorder/internal/model"
)

const maxPayloadBytes = 8 << 20

var errPayloadTooLarge = fmt.Errorf("payload exceeds %d MiB", maxPayloadBytes>>20)

// Source yields the raw problem set payload.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
	String() string
}

// Load reads src and parses the payload. Cancellation is returned as is.
func Load(ctx context.Context, src Source) (model.ProblemSet, error) {
	data, err := src.Read(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return Parse(data)
}

// NewSource picks a source for location: http(s) URLs are fetched over the
// network with a cache fallback under cacheDir, anything else is a file path.
func NewSource(location, cacheDir string, logger *zap.Logger) Source {
	if IsURL(location) {
		if cacheDir == "" {
			return &HTTPSource{URL: location}
		}
		return NewCachedSource(location, cacheDir, logger)
	}
	return FileSource{Path: location}
}

// NewCachedSource fetches url over HTTP and keeps the last good copy under cacheDir.
func NewCachedSource(url, cacheDir string, logger *zap.Logger) *CachedSource {
	return &CachedSource{
		Primary:   &HTTPSource{URL: url},
		CachePath: filepath.Join(cacheDir, cacheFileName(url)),
		Logger:    logger,
	}
}

// IsURL reports whether location is an http(s) URL. The scheme is case-insensitive.
func IsURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func cacheFileName(location string) string {
	sum := sha256.Sum256([]byte(location))
	return "problems-" + hex.EncodeToString(sum[:8]) + ".json"
}

// FileSource reads a local file.
type FileSource struct {
	Path string
}

func (s FileSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem set: %w", err)
	}
	return data, nil
}

func (s FileSource) String() string { return s.Path }

// HTTPSource fetches a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Read(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return nil, &NetworkError{URL: s.URL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{URL: s.URL, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URL: s.URL, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{URL: s.URL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if len(data) > maxPayloadBytes {
		return nil, &NetworkError{URL: s.URL, Err: errPayloadTooLarge}
	}
	return data, nil
}

func (s *HTTPSource) String() string { return s.URL }

// CachedSource prefers Primary and falls back to the last good payload stored
// at CachePath. Valid payloads from Primary refresh the cache.
type CachedSource struct {
	Primary   Source
	CachePath string
	Logger    *zap.Logger
}

func (s *CachedSource) Read(ctx context.Context) ([]byte, error) {
	data, err := s.Primary.Read(ctx)
	if err == nil {
		if _, perr := Parse(data); perr == nil {
			if werr := writeCache(s.CachePath, data); werr != nil {
				s.logger().Warn("failed to update problem cache", zap.String("path", s.CachePath), zap.Error(werr))
			}
		}
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cached, cerr := os.ReadFile(s.CachePath)
	if cerr != nil {
		if !errors.Is(cerr, os.ErrNotExist) {
			s.logger().Warn("failed to read problem cache", zap.String("path", s.CachePath), zap.Error(cerr))
		}
		return nil, err
	}
	s.logger().Info("using cached problem set", zap.String("source", s.Primary.String()), zap.Error(err))
	return cached, nil
}

// Refresh reads Primary without falling back to the cache. The cache is
// replaced only when the payload parses; any failure is returned.
func (s *CachedSource) Refresh(ctx context.Context) (model.ProblemSet, error) {
	data, err := s.Primary.Read(ctx)
	if err != nil {
		return nil, err
	}
	problems, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := writeCache(s.CachePath, data); err != nil {
		return nil, fmt.Errorf("failed to update problem cache: %w", err)
	}
	return problems, nil
}

func (s *CachedSource) String() string { return s.Primary.String() }

func (s *CachedSource) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func writeCache(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "problems-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move cache into place: %w", err)
	}
	return nil
}
