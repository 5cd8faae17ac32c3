package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ScreenshotStore is the append-only blob directory screenshots land in.
// Files are written once, never mutated, never deleted here; the directory
// is served statically under /screenshot/.
type ScreenshotStore struct {
	dir string
}

func NewScreenshotStore(dir string) (*ScreenshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &ScreenshotStore{dir: dir}, nil
}

func (s *ScreenshotStore) Dir() string {
	return s.dir
}

func (s *ScreenshotStore) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

func (s *ScreenshotStore) PublicPath(filename string) string {
	return "/screenshot/" + filename
}

func (s *ScreenshotStore) Read(filename string) ([]byte, error) {
	return os.ReadFile(s.Path(filename))
}

// captureClock hands out strictly increasing millisecond readings so two
// screenshots taken inside the same millisecond still get distinct
// filenames. Ties advance sequentially rather than being re-randomized.
type captureClock struct {
	mu   sync.Mutex
	last int64
}

func (c *captureClock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UnixMilli()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}
