// Package cleaner removes provisioner-generated local files from stack
// directories. State files are only touched when explicitly requested.
package cleaner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ntse/terrarunt/internal/fileutil"
	"github.com/ntse/terrarunt/internal/logger"
	"github.com/ntse/terrarunt/internal/stack"
)

var generatedFiles = []string{
	".terraform.lock.hcl",
	"terraform.tfstate.backup",
	"crash.log",
	".terraformrc",
	"terraform.log",
}

var generatedDirs = []string{
	".terraform",
}

var stateFiles = []string{
	"terraform.tfstate",
}

// Cleaner removes generated files, tracking what it removed.
type Cleaner struct {
	dryRun bool

	cleanedFiles []string
	cleanedDirs  []string
	bytesFreed   int64
	errs         []error
}

// New returns a Cleaner. With dryRun set, nothing is removed.
func New(dryRun bool) *Cleaner {
	return &Cleaner{dryRun: dryRun}
}

// CleanStack removes generated files from one stack directory. State files
// are included only when includeState is set.
func (c *Cleaner) CleanStack(ctx context.Context, st *stack.Stack, includeState bool) error {
	logger.Info(ctx, "Cleaning stack", "stack", st.Name)

	files := append([]string(nil), generatedFiles...)
	if includeState {
		files = append(files, stateFiles...)
	}

	for _, name := range files {
		path := filepath.Join(st.Dir, name)
		if fileutil.FileExists(path) {
			c.removeFile(ctx, path)
		}
	}
	for _, name := range generatedDirs {
		path := filepath.Join(st.Dir, name)
		if fileutil.IsDir(path) {
			c.removeDir(ctx, path)
		}
	}

	if len(c.errs) > 0 {
		return fmt.Errorf("failed to fully clean stack %s: %d errors", st.Name, len(c.errs))
	}
	return nil
}

// CleanAll cleans every stack. Dependency order does not matter here.
func (c *Cleaner) CleanAll(ctx context.Context, stacks []*stack.Stack, includeState bool) error {
	var failed int
	for _, st := range stacks {
		if err := c.CleanStack(ctx, st, includeState); err != nil {
			logger.Error(ctx, "Failed to clean stack", "stack", st.Name, "err", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to clean %d of %d stacks", failed, len(stacks))
	}
	return nil
}

func (c *Cleaner) removeFile(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		c.errs = append(c.errs, err)
		return
	}

	if c.dryRun {
		logger.Info(ctx, "[DRY RUN] Would remove file", "path", path)
	} else if err := os.Remove(path); err != nil {
		c.errs = append(c.errs, err)
		return
	}

	c.cleanedFiles = append(c.cleanedFiles, path)
	c.bytesFreed += info.Size()
}

func (c *Cleaner) removeDir(ctx context.Context, path string) {
	size := fileutil.DirSize(path)

	if c.dryRun {
		logger.Info(ctx, "[DRY RUN] Would remove directory", "path", path)
	} else if err := os.RemoveAll(path); err != nil {
		c.errs = append(c.errs, err)
		return
	}

	c.cleanedDirs = append(c.cleanedDirs, path)
	c.bytesFreed += size
}

// ShowSummary writes the cleaning summary to w.
func (c *Cleaner) ShowSummary(w io.Writer) {
	if len(c.cleanedFiles) == 0 && len(c.cleanedDirs) == 0 && len(c.errs) == 0 {
		return
	}

	fmt.Fprintf(w, "\nFiles removed: %d\n", len(c.cleanedFiles))
	fmt.Fprintf(w, "Directories removed: %d\n", len(c.cleanedDirs))
	fmt.Fprintf(w, "Space freed: %s\n", fileutil.FormatSize(c.bytesFreed))
	if len(c.errs) > 0 {
		fmt.Fprintf(w, "Errors: %d\n", len(c.errs))
		for _, err := range c.errs {
			fmt.Fprintf(w, "  - %v\n", err)
		}
	}
}
