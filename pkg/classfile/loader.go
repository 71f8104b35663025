package classfile

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/errgroup"
)

// LoaderOptions configures class discovery.
type LoaderOptions struct {
	// Recursive descends into subdirectories of directory arguments.
	Recursive bool

	// Concurrency bounds parallel parsing. Zero means runtime.NumCPU().
	Concurrency int
}

// Failure records a class file that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.Path, f.Err) }

// Batch is the result of loading a set of paths: every class that parsed,
// and every file that did not.
type Batch struct {
	// Classes are sorted by internal name.
	Classes  []*ClassModel
	Sources  map[string]string // internal name -> file path
	Failures []Failure
}

// Packages groups classes by internal package name.
func (b *Batch) Packages() map[string][]*ClassModel {
	pkgs := make(map[string][]*ClassModel)
	for _, c := range b.Classes {
		pkgs[c.Package()] = append(pkgs[c.Package()], c)
	}
	return pkgs
}

// Lookup finds a class by internal or dotted name.
func (b *Batch) Lookup(name string) (*ClassModel, bool) {
	name = InternalName(name)
	i, ok := slices.BinarySearchFunc(b.Classes, name, func(c *ClassModel, n string) int {
		return strings.Compare(c.Name, n)
	})
	if !ok {
		return nil, false
	}
	return b.Classes[i], true
}

// LoadPaths discovers .class files under paths and parses them in parallel.
// A file that fails to parse is recorded in Batch.Failures and does not stop
// the batch; a path that cannot be walked is an error.
func LoadPaths(ctx context.Context, paths []string, opts LoaderOptions) (*Batch, error) {
	files, err := discover(paths, opts.Recursive)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no class files found in %v", paths)
	}
	slog.Debug("discovered class files", "num", len(files))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	type parsed struct {
		cls *ClassModel
		err error
	}
	results := xsync.NewMap[string, parsed]()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cls, err := ParseFile(path)
			results.Store(path, parsed{cls: cls, err: err})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading classes: %w", err)
	}

	batch := &Batch{Sources: make(map[string]string)}
	for _, path := range files {
		res, _ := results.Load(path)
		if res.err != nil {
			slog.Warn("skipping class file", "path", path, "err", res.err)
			batch.Failures = append(batch.Failures, Failure{Path: path, Err: res.err})
			continue
		}
		if prev, dup := batch.Sources[res.cls.Name]; dup {
			err := fmt.Errorf("duplicate class %s, already loaded from %s", res.cls.Name, prev)
			slog.Warn("skipping class file", "path", path, "err", err)
			batch.Failures = append(batch.Failures, Failure{Path: path, Err: err})
			continue
		}
		batch.Sources[res.cls.Name] = path
		batch.Classes = append(batch.Classes, res.cls)
	}
	slices.SortFunc(batch.Classes, func(a, b *ClassModel) int { return strings.Compare(a.Name, b.Name) })
	slog.Debug("loaded classes", "num", len(batch.Classes), "failed", len(batch.Failures))
	return batch, nil
}

// discover expands paths into a sorted, de-duplicated list of class files.
func discover(paths []string, recursive bool) ([]string, error) {
	seen := make(map[string]struct{})
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			seen[filepath.Clean(root)] = struct{}{}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".class") {
				seen[filepath.Clean(path)] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}
