package tsemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Options controls how rendered files reach the disk.
type Options struct {
	OutDir string // required; target directory for one document
	Force  bool   // overwrite a non-empty directory
	DryRun bool   // don't write, only plan
	// Format post-processes each generated .ts file. Nil leaves content as is.
	Format func(relPath string, content []byte) ([]byte, error)
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files.
type Result struct {
	OutDir  string
	Planned []PlannedFile
}

// Emit formats and writes files under opts.OutDir. Files already written
// stay on disk when a later one fails.
func Emit(ctx context.Context, files []File, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("tsemitter: OutDir is required")
	}

	contents := make(map[string][]byte, len(files))
	for _, f := range files {
		rel := filepath.ToSlash(f.RelPath)
		content := f.Content
		if opts.Format != nil && strings.HasSuffix(rel, ".ts") {
			formatted, err := opts.Format(rel, content)
			if err != nil {
				return nil, fmt.Errorf("format %s: %w", rel, err)
			}
			content = formatted
		}
		contents[rel] = content
	}

	rels := make([]string, 0, len(contents))
	for p := range contents {
		rels = append(rels, p)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(contents[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(ctx, opts.OutDir, rels, contents, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{OutDir: opts.OutDir, Planned: planned}, nil
}

func writeFiles(ctx context.Context, outDir string, rels []string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("tsemitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := filepath.Join(abs, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, files[rel], 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
