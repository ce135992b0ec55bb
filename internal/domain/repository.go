package domain

import (
	"context"
	"io"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// DatasetSource produces recipe records from a backing store (CSV file, SQLite database)
type DatasetSource interface {
	LoadRecipes(ctx context.Context) (*LoadResult, error)
}

// ImageStore resolves image base names to files on disk
type ImageStore interface {
	// Locate returns the file name that serves the given base name, or ErrImageNotFound
	Locate(name string) (string, error)
	// Open returns the image contents and its resolved file name
	Open(name string) (io.ReadCloser, string, error)
}
