package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/beam-cloud/pngme/pkg/png"
	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
	"golang.org/x/sync/errgroup"
)

// Result describes one file that starts with the png signature.
type Result struct {
	Path   string
	Size   int64
	Chunks int
	Types  []string // chunk types in file order
	Err    error    // set when the file failed to parse
}

// HasType reports whether the file holds at least one chunk of chunkType.
func (r *Result) HasType(chunkType string) bool {
	for _, t := range r.Types {
		if t == chunkType {
			return true
		}
	}
	return false
}

// Index holds scan results ordered by path.
type Index struct {
	mu   sync.Mutex
	tree *btree.BTree
}

func NewIndex() *Index {
	compare := func(a, b interface{}) bool {
		return a.(*Result).Path < b.(*Result).Path
	}
	return &Index{tree: btree.New(compare)}
}

func (idx *Index) Insert(r *Result) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.Set(r)
}

func (idx *Index) Get(path string) *Result {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	item := idx.tree.Get(&Result{Path: path})
	if item == nil {
		return nil
	}
	return item.(*Result)
}

func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.tree.Len()
}

// Ascend calls iter for every result in path order until iter returns false.
func (idx *Index) Ascend(iter func(r *Result) bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree.Ascend(nil, func(item interface{}) bool {
		return iter(item.(*Result))
	})
}

// WithType returns the results holding a chunk of chunkType, in path order.
func (idx *Index) WithType(chunkType string) []*Result {
	var results []*Result
	idx.Ascend(func(r *Result) bool {
		if r.HasType(chunkType) {
			results = append(results, r)
		}
		return true
	})
	return results
}

type Options struct {
	Root    string
	Workers int
}

// Scan walks opts.Root and parses every regular file that starts with the
// png signature. Files that fail to parse are recorded with Err set; only
// walk failures and cancellation abort the scan.
func Scan(ctx context.Context, opts Options) (*Index, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = common.DefaultScanWorkers
	}

	if _, err := os.Stat(opts.Root); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", opts.Root, err)
	}

	index := NewIndex()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	err := godirwalk.Walk(opts.Root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !de.IsRegular() {
				return nil
			}

			g.Go(func() error {
				r, err := scanFile(path)
				if err != nil {
					log.Debug().Str("path", path).Err(err).Msg("skipping file")
					return nil
				}
				if r != nil {
					index.Insert(r)
				}
				return nil
			})
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return godirwalk.Halt
			}
			log.Warn().Str("path", path).Err(err).Msg("unable to walk path")
			return godirwalk.SkipNode
		},
	})

	if waitErr := g.Wait(); err == nil {
		err = waitErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", opts.Root, err)
	}

	log.Info().Msgf("scanned %s: %d containers", opts.Root, index.Len())
	return index, nil
}

// scanFile returns nil, nil for files without the signature.
func scanFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, common.SignatureLength)
	if _, err := io.ReadFull(f, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil
		}
		return nil, err
	}
	if !bytes.Equal(header, common.PngSignature[:]) {
		return nil, nil
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	r := &Result{Path: path, Size: int64(len(header) + len(rest))}

	p, err := png.Parse(append(header, rest...))
	if err != nil {
		r.Err = err
		return r, nil
	}

	r.Chunks = p.Len()
	for _, c := range p.Chunks() {
		r.Types = append(r.Types, c.Type().String())
	}
	return r, nil
}
