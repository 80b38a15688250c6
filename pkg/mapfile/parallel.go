package mapfile

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LoadOptions controls how many map files are read at once and what happens
// when one of them fails.
type LoadOptions struct {
	// Workers is the number of files decoded concurrently.
	// If 0, defaults to runtime.NumCPU().
	Workers int

	// SkipErrors keeps loading when a file fails. Failed files are left out
	// and their errors returned. When false, the first error stops loading.
	SkipErrors bool

	// Progress is called after each file with the number processed so far.
	Progress func(loaded, total int)

	// ErrorLog receives one line per failed file.
	ErrorLog io.Writer
}

// DefaultLoadOptions returns load options with defaults.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Workers:    runtime.NumCPU(),
		SkipErrors: true,
	}
}

// LoadFile reads, decodes and builds one map file.
func LoadFile(path string) (*Map, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	return f.Build()
}

// LoadFiles reads map files on up to Workers goroutines and merges them in
// path order. Without SkipErrors the first failure cancels files not yet
// started and is the only error returned.
//
// Example:
//
//	m, errs := mapfile.LoadFiles(paths, mapfile.LoadOptions{
//	    Workers:    4,
//	    SkipErrors: true,
//	    ErrorLog:   os.Stderr,
//	})
//	stats, err := m.Apply(store)
func LoadFiles(paths []string, opts LoadOptions) (*Map, []error) {
	maps := make([]*Map, len(paths))
	failed := make([]error, len(paths))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	var mu sync.Mutex
	loaded := 0
	done := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		loaded++
		if opts.Progress != nil {
			opts.Progress(loaded, len(paths))
		}
		if err != nil && opts.ErrorLog != nil {
			fmt.Fprintf(opts.ErrorLog, "Error loading map: %v\n", err)
		}
	}

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := LoadFile(path)
			if err != nil {
				err = fmt.Errorf("%s: %w", path, err)
			}
			done(err)
			if err != nil {
				failed[i] = err
				if !opts.SkipErrors {
					return err
				}
				return nil
			}
			maps[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, []error{err}
	}

	out := &Map{}
	var errs []error
	for i := range paths {
		if failed[i] != nil {
			errs = append(errs, failed[i])
			continue
		}
		out.Merge(maps[i])
	}
	return out, errs
}
