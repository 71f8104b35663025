package classlint

import (
	"context"
	"fmt"

	"github.com/715d/classlint/pkg/classfile"
)

// LoaderOptions configures class loading.
type LoaderOptions struct {
	// Paths are class files or directories holding them. Empty
	// means the current directory.
	Paths []string

	// Recursive descends into subdirectories.
	Recursive bool

	// Concurrency bounds parallel parsing. Zero means runtime.NumCPU().
	Concurrency int
}

// LoadClasses loads every class file under the given paths. Files that fail
// to parse are listed in Batch.Failures.
func LoadClasses(ctx context.Context, opts LoaderOptions) (*classfile.Batch, error) {
	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	batch, err := classfile.LoadPaths(ctx, paths, classfile.LoaderOptions{
		Recursive:   opts.Recursive,
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("loading classes: %w", err)
	}
	return batch, nil
}
