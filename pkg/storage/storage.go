package storage

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/beam-cloud/ristretto"
)

// ContainerStorage loads and persists the raw bytes of one container. The
// core codec never does I/O; everything crossing the process boundary goes
// through an implementation of this interface.
type ContainerStorage interface {
	Load(ctx context.Context) ([]byte, error)
	Persist(ctx context.Context, data []byte) error
	Location() string
	Mode() common.StorageMode
	Cleanup() error
}

type ContainerStorageOpts struct {
	Location    string
	Credentials ContainerStorageCredentials
	HTTPTimeout time.Duration
	HTTPCache   *ristretto.Cache[string, []byte]
}

type ContainerStorageCredentials struct {
	S3 *S3ContainerStorageCredentials
}

// ParsedLocation is a location split into the parts a backend needs.
type ParsedLocation struct {
	Mode   common.StorageMode
	Path   string // local path
	Bucket string // s3 bucket
	Key    string // s3 key
	URL    string // http(s) url
}

// ParseLocation classifies a location string. Plain paths and file:// urls
// are local, s3://bucket/key is s3 and http(s):// urls are read-only http.
func ParseLocation(location string) (ParsedLocation, error) {
	if location == "" {
		return ParsedLocation{}, fmt.Errorf("%w: empty location", common.ErrUnsupportedLocation)
	}

	if filepath.VolumeName(location) != "" || !strings.Contains(location, "://") {
		return ParsedLocation{Mode: common.StorageModeLocal, Path: location}, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return ParsedLocation{}, fmt.Errorf("%w: %v", common.ErrUnsupportedLocation, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		if u.Path == "" {
			return ParsedLocation{}, fmt.Errorf("%w: missing path in %s", common.ErrUnsupportedLocation, location)
		}
		return ParsedLocation{Mode: common.StorageModeLocal, Path: u.Path}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return ParsedLocation{}, fmt.Errorf("%w: s3 location must look like s3://bucket/key, got %s", common.ErrUnsupportedLocation, location)
		}
		return ParsedLocation{Mode: common.StorageModeS3, Bucket: u.Host, Key: key}, nil
	case "http", "https":
		return ParsedLocation{Mode: common.StorageModeHTTP, URL: location}, nil
	}

	return ParsedLocation{}, fmt.Errorf("%w: scheme %q", common.ErrUnsupportedLocation, u.Scheme)
}

// NewContainerStorage returns the backend serving opts.Location.
func NewContainerStorage(opts ContainerStorageOpts) (ContainerStorage, error) {
	parsed, err := ParseLocation(opts.Location)
	if err != nil {
		return nil, err
	}

	switch parsed.Mode {
	case common.StorageModeLocal:
		return NewLocalContainerStorage(LocalContainerStorageOpts{Path: parsed.Path})
	case common.StorageModeS3:
		s3Opts := S3ContainerStorageOpts{
			Bucket:         parsed.Bucket,
			Key:            parsed.Key,
			Region:         common.S3Region(),
			Endpoint:       common.GetEnv(common.EnvS3Endpoint, ""),
			ForcePathStyle: common.GetEnvBool(common.EnvS3PathStyle, false),
		}
		if opts.Credentials.S3 != nil {
			s3Opts.AccessKey = opts.Credentials.S3.AccessKey
			s3Opts.SecretKey = opts.Credentials.S3.SecretKey
		}
		return NewS3ContainerStorage(s3Opts)
	case common.StorageModeHTTP:
		timeout := opts.HTTPTimeout
		if timeout == 0 {
			timeout = common.GetEnvDuration(common.EnvHTTPTimeout, common.DefaultHTTPTimeout)
		}
		return NewHTTPContainerStorage(HTTPContainerStorageOpts{
			URL:     parsed.URL,
			Timeout: timeout,
			Cache:   opts.HTTPCache,
		})
	}

	return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedLocation, opts.Location)
}
