package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/beam-cloud/ristretto"
	"github.com/rs/zerolog/log"
)

// HTTPContainerStorage reads containers over http(s). It is read-only;
// fetched bodies are kept in a ristretto cache keyed by url.
type HTTPContainerStorage struct {
	url       string
	client    *http.Client
	cache     *ristretto.Cache[string, []byte]
	ownsCache bool
}

type HTTPContainerStorageOpts struct {
	URL     string
	Timeout time.Duration
	Cache   *ristretto.Cache[string, []byte]
}

func NewHTTPContainerStorage(opts HTTPContainerStorageOpts) (*HTTPContainerStorage, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("url cannot be empty")
	}

	s := &HTTPContainerStorage{
		url:    opts.URL,
		client: &http.Client{Timeout: opts.Timeout},
		cache:  opts.Cache,
	}

	if s.cache == nil {
		cache, err := NewContainerCache()
		if err != nil {
			return nil, err
		}
		s.cache = cache
		s.ownsCache = true
	}

	return s, nil
}

// NewContainerCache builds the cache used for fetched container bodies.
func NewContainerCache() (*ristretto.Cache[string, []byte], error) {
	return ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e4,
		MaxCost:     256 * 1e6,
		BufferItems: 64,
	})
}

func (s *HTTPContainerStorage) Load(ctx context.Context) ([]byte, error) {
	if content, ok := s.cache.Get(s.url); ok {
		log.Debug().Str("url", s.url).Msg("container cache hit")
		return content, nil
	}

	log.Debug().Str("url", s.url).Msg("container cache miss, fetching")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch container <%s>: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d when fetching container %s", resp.StatusCode, s.url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	s.cache.Set(s.url, data, int64(len(data)))
	s.cache.Wait()
	return data, nil
}

func (s *HTTPContainerStorage) Persist(ctx context.Context, data []byte) error {
	return fmt.Errorf("%w: cannot write to %s", common.ErrReadOnlyStorage, s.url)
}

func (s *HTTPContainerStorage) Location() string {
	return s.url
}

func (s *HTTPContainerStorage) Mode() common.StorageMode {
	return common.StorageModeHTTP
}

func (s *HTTPContainerStorage) Cleanup() error {
	if s.ownsCache {
		s.cache.Close()
	}
	return nil
}
