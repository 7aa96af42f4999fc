package rulefile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"clara-graph/rule"
)

// DefaultPattern selects the rule files of a directory.
const DefaultPattern = "**/*.{yaml,yml}"

// Load reads and parses a single rule file.
func Load(path string) ([]rule.Production, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}
	ps, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

// File is a rule source backed by one YAML file.
type File struct {
	Path   string
	Logger *slog.Logger
}

// LoadProductions loads the file.
func (f File) LoadProductions(ctx context.Context) ([]rule.Production, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ps, err := Load(f.Path)
	if err != nil {
		return nil, err
	}
	logger(f.Logger).Debug("loaded rule file", slog.String("path", f.Path), slog.Int("rules", len(ps)))
	return ps, nil
}

// Dir is a rule source backed by every file under Root matching Pattern,
// loaded in lexical path order.
type Dir struct {
	Root    string
	Pattern string
	Logger  *slog.Logger
}

// Files returns the rule files under the directory, sorted.
func (d Dir) Files() ([]string, error) {
	pattern := d.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(os.DirFS(d.Root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("globbing %s in %s: %w", pattern, d.Root, err)
	}
	sort.Strings(matches)

	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(d.Root, filepath.FromSlash(m))
	}
	return files, nil
}

// LoadProductions loads every matching file.
func (d Dir) LoadProductions(ctx context.Context) ([]rule.Production, error) {
	files, err := d.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger(d.Logger).Warn("no rule files found", slog.String("root", d.Root))
	}

	var all []rule.Production
	for _, path := range files {
		ps, err := File{Path: path, Logger: d.Logger}.LoadProductions(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, ps...)
	}
	return all, nil
}

// Sources turns paths into rule sources: directories become Dir sources
// using pattern, anything else a File source.
func Sources(paths []string, pattern string, l *slog.Logger) ([]rule.Source, error) {
	sources := make([]rule.Source, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("rule path: %w", err)
		}
		if info.IsDir() {
			sources = append(sources, Dir{Root: p, Pattern: pattern, Logger: l})
		} else {
			sources = append(sources, File{Path: p, Logger: l})
		}
	}
	return sources, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
