package pngme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/beam-cloud/pngme/pkg/chunk"
	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/beam-cloud/pngme/pkg/metrics"
	"github.com/beam-cloud/pngme/pkg/png"
	"github.com/beam-cloud/pngme/pkg/scan"
	"github.com/beam-cloud/pngme/pkg/storage"
	"github.com/beam-cloud/ristretto"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the logging verbosity.
// Valid levels: "debug", "info", "warn", "error", "disabled"
// Use "debug" to see storage round trips and parse timings
// Use "disabled" to suppress all logs
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled", "none", "off":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		return fmt.Errorf("invalid log level %q: must be one of: debug, info, warn, error, disabled", level)
	}
	return nil
}

type EncodeOptions struct {
	Location       string
	OutputLocation string // defaults to Location
	ChunkType      string
	Message        string
	Credentials    storage.ContainerStorageCredentials
}

type DecodeOptions struct {
	Location    string
	ChunkType   string
	Credentials storage.ContainerStorageCredentials
}

type RemoveOptions struct {
	Location    string
	ChunkType   string
	Credentials storage.ContainerStorageCredentials
}

type PrintOptions struct {
	Location    string
	Verbose     bool
	Out         io.Writer
	Credentials storage.ContainerStorageCredentials
}

type ScanOptions struct {
	Root    string
	Workers int
}

var (
	httpCacheOnce sync.Once
	httpCache     *ristretto.Cache[string, []byte]
	httpCacheErr  error
)

// sharedHTTPCache returns the process-wide cache of fetched http containers.
func sharedHTTPCache() (*ristretto.Cache[string, []byte], error) {
	httpCacheOnce.Do(func() {
		httpCache, httpCacheErr = storage.NewContainerCache()
	})
	return httpCache, httpCacheErr
}

func openStorage(location string, credentials storage.ContainerStorageCredentials) (storage.ContainerStorage, error) {
	cache, err := sharedHTTPCache()
	if err != nil {
		return nil, err
	}

	return storage.NewContainerStorage(storage.ContainerStorageOpts{
		Location:    location,
		Credentials: credentials,
		HTTPCache:   cache,
	})
}

// Load reads and parses the container behind s.
func Load(ctx context.Context, s storage.ContainerStorage) (*png.Png, error) {
	start := time.Now()
	data, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordStorage(string(s.Mode()), false, time.Since(start))

	start = time.Now()
	p, err := png.Parse(data)
	var chunkTypes []string
	if p != nil {
		for _, c := range p.Chunks() {
			chunkTypes = append(chunkTypes, c.Type().String())
		}
	}
	metrics.RecordParse(int64(len(data)), chunkTypes, time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("invalid container <%s>: %w", s.Location(), err)
	}
	return p, nil
}

// Save serializes p and persists it through s.
func Save(ctx context.Context, s storage.ContainerStorage, p *png.Png) error {
	data := p.Bytes()
	metrics.RecordSerialize(int64(len(data)))

	start := time.Now()
	if err := s.Persist(ctx, data); err != nil {
		return err
	}
	metrics.RecordStorage(string(s.Mode()), true, time.Since(start))
	return nil
}

// Encode appends a chunk holding the message and persists the container.
func Encode(ctx context.Context, options EncodeOptions) error {
	chunkType, err := chunk.ParseChunkType(options.ChunkType)
	if err != nil {
		return err
	}

	outputLocation := options.OutputLocation
	if outputLocation == "" {
		outputLocation = options.Location
	}
	log.Info().Msgf("encoding %s chunk into %s", chunkType, outputLocation)

	src, err := openStorage(options.Location, options.Credentials)
	if err != nil {
		return err
	}
	defer src.Cleanup()

	p, err := Load(ctx, src)
	if err != nil {
		return err
	}

	p.AppendChunk(chunk.NewChunk(chunkType, []byte(options.Message)))

	dst := src
	if outputLocation != options.Location {
		if dst, err = openStorage(outputLocation, options.Credentials); err != nil {
			return err
		}
		defer dst.Cleanup()
	}

	if err := Save(ctx, dst, p); err != nil {
		return err
	}

	log.Info().Msgf("message encoded successfully (%d chunks)", p.Len())
	return nil
}

// Decode returns the first chunk of the requested type, or an error wrapping
// ErrChunkNotFound.
func Decode(ctx context.Context, options DecodeOptions) (chunk.Chunk, error) {
	log.Debug().Msgf("decoding %s chunk from %s", options.ChunkType, options.Location)

	s, err := openStorage(options.Location, options.Credentials)
	if err != nil {
		return chunk.Chunk{}, err
	}
	defer s.Cleanup()

	p, err := Load(ctx, s)
	if err != nil {
		return chunk.Chunk{}, err
	}

	c, ok := p.ChunkByType(options.ChunkType)
	if !ok {
		return chunk.Chunk{}, fmt.Errorf("%w: %s in %s", common.ErrChunkNotFound, options.ChunkType, options.Location)
	}
	return c, nil
}

// RemoveAll removes every chunk of chunkType by calling RemoveChunk until it
// reports ErrChunkNotFound, and returns how many were removed. It fails with
// ErrChunkNotFound when there was nothing to remove.
func RemoveAll(p *png.Png, chunkType string) (int, error) {
	removed := 0
	for {
		_, err := p.RemoveChunk(chunkType)
		if errors.Is(err, common.ErrChunkNotFound) {
			break
		}
		if err != nil {
			return removed, err
		}
		removed++
	}

	if removed == 0 {
		return 0, fmt.Errorf("%w: %s", common.ErrChunkNotFound, chunkType)
	}
	return removed, nil
}

// Remove deletes every chunk of the requested type and persists the result.
// Nothing is written when no chunk matched.
func Remove(ctx context.Context, options RemoveOptions) (int, error) {
	log.Info().Msgf("removing %s chunks from %s", options.ChunkType, options.Location)

	s, err := openStorage(options.Location, options.Credentials)
	if err != nil {
		return 0, err
	}
	defer s.Cleanup()

	p, err := Load(ctx, s)
	if err != nil {
		return 0, err
	}

	removed, err := RemoveAll(p, options.ChunkType)
	if err != nil {
		return 0, err
	}

	if err := Save(ctx, s, p); err != nil {
		return 0, err
	}

	log.Info().Msgf("removed %d %s chunk(s)", removed, options.ChunkType)
	return removed, nil
}

// Print writes every chunk of the container, in order, to options.Out.
func Print(ctx context.Context, options PrintOptions) error {
	out := options.Out
	if out == nil {
		out = os.Stdout
	}

	s, err := openStorage(options.Location, options.Credentials)
	if err != nil {
		return err
	}
	defer s.Cleanup()

	p, err := Load(ctx, s)
	if err != nil {
		return err
	}

	if options.Verbose {
		fmt.Fprintf(out, "%s: %d chunks, %s\n", s.Location(), p.Len(), humanize.Bytes(uint64(p.Size())))
	}

	for i, c := range p.Chunks() {
		if options.Verbose {
			fmt.Fprintf(out, "[%d] %s (%s)\n", i, c, c.Type().Properties())
			continue
		}
		fmt.Fprintln(out, c)
	}
	return nil
}

// Scan parses every container found under options.Root.
func Scan(ctx context.Context, options ScanOptions) (*scan.Index, error) {
	log.Info().Msgf("scanning %s", options.Root)

	workers := options.Workers
	if workers <= 0 {
		workers = common.GetEnvInt(common.EnvScanWorkers, common.DefaultScanWorkers)
	}

	return scan.Scan(ctx, scan.Options{Root: options.Root, Workers: workers})
}

type StoreOptions struct {
	Source      string
	Destination string
	Credentials storage.ContainerStorageCredentials
}

// Store copies a container from Source to Destination. The container is
// parsed on the way through, so a corrupt source is never persisted.
func Store(ctx context.Context, options StoreOptions) error {
	log.Info().Msgf("storing %s to %s", options.Source, options.Destination)

	src, err := openStorage(options.Source, options.Credentials)
	if err != nil {
		return err
	}
	defer src.Cleanup()

	p, err := Load(ctx, src)
	if err != nil {
		return err
	}

	dst, err := openStorage(options.Destination, options.Credentials)
	if err != nil {
		return err
	}
	defer dst.Cleanup()

	if err := Save(ctx, dst, p); err != nil {
		return err
	}

	log.Info().Str("mode", string(dst.Mode())).Msgf("stored container at %s", dst.Location())
	return nil
}
