package catalogfile

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/trendstep/storefront/internal/domain/catalog"
)

// Source hands out the current catalog. Readers never block; Reload swaps
// the whole catalog at once.
type Source struct {
	path    string
	current atomic.Pointer[catalog.Catalog]
	logger  *zap.Logger
}

// NewSource loads path, or the built-in catalog when path is empty
func NewSource(path string, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Source{path: path, logger: logger}

	if path == "" {
		s.current.Store(Default())
		logger.Info("using built-in catalog", zap.Int("products", s.Catalog().Len()))
		return s, nil
	}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(c)
	logger.Info("catalog loaded", zap.String("path", path), zap.Int("products", c.Len()))
	return s, nil
}

// Static wraps a fixed catalog
func Static(c *catalog.Catalog) *Source {
	s := &Source{logger: zap.NewNop()}
	s.current.Store(c)
	return s
}

// Path returns the watched file, empty for built-in or static catalogs
func (s *Source) Path() string {
	return s.path
}

// Catalog returns the current catalog
func (s *Source) Catalog() *catalog.Catalog {
	return s.current.Load()
}

// Reload re-reads the file. On error the previous catalog stays active.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	c, err := Load(s.path)
	if err != nil {
		s.logger.Error("catalog reload failed, keeping previous catalog",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return err
	}
	s.current.Store(c)
	s.logger.Info("catalog reloaded", zap.String("path", s.path), zap.Int("products", c.Len()))
	return nil
}
