package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/text3d/hub/internal/logging"
)

// AnimationSeeder registers one animation per script file in Dir.
type AnimationSeeder struct {
	Store     *Store
	Dir       string
	URLPrefix string // e.g. /scenarios
	Logger    *zap.Logger
}

// Seed inserts an animation named after each .js file, skipping names that
// are already registered. It returns the inserted and skipped counts.
func (s *AnimationSeeder) Seed(ctx context.Context) (inserted, skipped int, err error) {
	logger := logging.OrNop(s.Logger)

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read animation dir: %w", err)
	}
	scripts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(path.Ext(entry.Name()), ".js") {
			continue
		}
		scripts = append(scripts, entry.Name())
	}
	sort.Strings(scripts)

	for _, file := range scripts {
		name := strings.TrimSuffix(file, path.Ext(file))
		if name == "" {
			continue
		}
		_, err := s.Store.CreateAnimation(ctx, CreateAnimationInput{
			Name:       name,
			ScriptPath: path.Join("/", s.URLPrefix, file),
		})
		if errors.Is(err, ErrDuplicateAnimation) {
			logger.Info("animation already registered", zap.String("name", name))
			skipped++
			continue
		}
		if err != nil {
			return inserted, skipped, fmt.Errorf("insert animation %s: %w", name, err)
		}
		logger.Info("animation added", zap.String("name", name), zap.String("file", file))
		inserted++
	}
	return inserted, skipped, nil
}
