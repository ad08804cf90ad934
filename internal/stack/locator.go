package stack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/fileutil"
	"github.com/ntse/terrarunt/internal/logger"
)

// DiscoveryError indicates that stack discovery could not start or
// complete. It is fatal: no stack is executed afterwards.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("stack discovery failed for %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// markerFiles qualify a directory as a stack when present directly in it.
var markerFiles = []string{"main.tf", "backend.tf"}

// Locator discovers stack directories under a root path.
type Locator struct {
	cfg  *config.Config
	root string
}

// NewLocator returns a Locator rooted at root.
func NewLocator(cfg *config.Config, root string) *Locator {
	return &Locator{cfg: cfg, root: root}
}

// Discover walks the root tree and returns all qualifying stacks sorted by
// name. The walk is read-only; symlink traversal cycles are skipped with a
// warning rather than failing the run.
func (l *Locator) Discover(ctx context.Context) ([]*Stack, error) {
	root, err := filepath.Abs(l.root)
	if err != nil {
		return nil, &DiscoveryError{Root: l.root, Err: err}
	}
	if !fileutil.IsDir(root) {
		return nil, &DiscoveryError{Root: root, Err: fmt.Errorf("not a directory")}
	}

	var stacks []*Stack
	seen := make(map[string]bool)

	real, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	seen[real] = true

	if err := l.walk(ctx, root, root, 0, seen, &stacks); err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	sort.Slice(stacks, func(i, j int) bool {
		if stacks[i].Name != stacks[j].Name {
			return stacks[i].Name < stacks[j].Name
		}
		return stacks[i].Dir < stacks[j].Dir
	})

	logger.Info(ctx, "Discovered stacks", "count", len(stacks), "root", root)
	return stacks, nil
}

func (l *Locator) walk(ctx context.Context, root, dir string, depth int, seen map[string]bool, out *[]*Stack) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		sub := filepath.Join(dir, entry.Name())

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			isDir = fileutil.IsDir(sub)
		}
		if !isDir || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		rel, err := filepath.Rel(root, sub)
		if err != nil {
			return err
		}
		if l.excluded(rel) {
			logger.Debug(ctx, "Excluded directory", "path", rel)
			continue
		}

		real, err := filepath.EvalSymlinks(sub)
		if err != nil {
			logger.Warn(ctx, "Failed to resolve directory, skipping", "path", sub, "err", err)
			continue
		}
		if seen[real] {
			logger.Warn(ctx, "Symlink traversal cycle detected, skipping", "path", sub)
			continue
		}
		seen[real] = true

		if l.qualifies(sub) {
			st, err := FromDir(sub, root, l.cfg)
			if err != nil {
				logger.Warn(ctx, "Failed to load stack, skipping", "path", sub, "err", err)
			} else {
				logger.Debug(ctx, "Found stack", "name", st.Name, "path", sub)
				*out = append(*out, st)
			}
		}

		if l.cfg.MaxDepth == 0 || depth+1 < l.cfg.MaxDepth {
			if err := l.walk(ctx, root, sub, depth+1, seen, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// qualifies reports whether dir directly contains provisioner configuration
// or a stack declaration. Parent directories are never merged in.
func (l *Locator) qualifies(dir string) bool {
	for _, marker := range markerFiles {
		if fileutil.FileExists(filepath.Join(dir, marker)) {
			return true
		}
	}
	return fileutil.FileExists(filepath.Join(dir, l.cfg.StackFile)) ||
		fileutil.FileExists(filepath.Join(dir, l.cfg.LegacyStackFile))
}

func (l *Locator) excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range l.cfg.Excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
