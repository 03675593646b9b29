package main

import (
	"context"
	"io"
	"sync"

	"github.com/panjf2000/ants"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Qthai16/go-murmur3/service"
	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

const stdinName = "-"

type fileSum struct {
	Name string
	Size int64
	Sum  uint64
	Err  error
}

// copyChunks feeds r to w in chunk sized writes.
func copyChunks(w io.Writer, r io.Reader, chunk int) (int64, error) {
	// hide WriterTo so the buffer size is honoured
	return io.CopyBuffer(w, struct{ io.Reader }{r}, make([]byte, chunk))
}

func openInput(fs afero.Fs, stdin io.Reader, name string) (io.ReadCloser, error) {
	if name == stdinName {
		return io.NopCloser(stdin), nil
	}
	return fs.Open(name)
}

func hashOne(fs afero.Fs, stdin io.Reader, builder hashkit.BuildHasher, name string, chunk int) fileSum {
	res := fileSum{Name: name}
	f, err := openInput(fs, stdin, name)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()
	h := builder.BuildHasher()
	if res.Size, res.Err = copyChunks(h, f, chunk); res.Err == nil {
		res.Sum = h.Finish()
	}
	return res
}

// hashFiles hashes every file on a pool of workers. Results keep the order
// of names; a failed file does not stop the others.
func hashFiles(fs afero.Fs, stdin io.Reader, builder hashkit.BuildHasher, names []string, chunk, workers int) ([]fileSum, error) {
	p, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	defer p.Release()

	results := make([]fileSum, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		err = p.Submit(func() {
			defer wg.Done()
			results[i] = hashOne(fs, stdin, builder, name, chunk)
		})
		if err != nil {
			wg.Done()
			results[i] = fileSum{Name: name, Err: err}
		}
	}
	wg.Wait()
	return results, nil
}

// hashRemote streams every file to a hash server, one stream per worker.
// Connection errors abort the remaining files.
func hashRemote(ctx context.Context, client *service.Client, fs afero.Fs, stdin io.Reader, names []string, chunk, workers int) ([]fileSum, error) {
	results := make([]fileSum, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			results[i] = fileSum{Name: name}
			f, err := openInput(fs, stdin, name)
			if err != nil {
				results[i].Err = err
				return nil
			}
			defer f.Close()
			st, err := client.NewStream(ctx)
			if err != nil {
				return err
			}
			if results[i].Size, err = copyChunks(st, f, chunk); err != nil {
				st.Close()
				return err
			}
			if results[i].Sum, err = st.Finish(); err != nil {
				st.Close()
				return err
			}
			return st.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
