package cache

import (
	"context"

	"github.com/file-drop/file-drop-backend/pkg/api"
)

// A noop cache doesn't actually cache anything, but provides an implementation
// of the caching interface
type noOpCache struct {
}

func NewNoOpCache() *noOpCache {
	return &noOpCache{}
}

// GetFileRecord a NoOp version to fetch a cached file record
func (c *noOpCache) GetFileRecord(ctx context.Context, uuid string) (*api.FileRecordResponse, error) {
	return nil, NotFound
}

// SetFileRecord a NoOp version to store a file record
func (c *noOpCache) SetFileRecord(ctx context.Context, uuid string, response api.FileRecordResponse) error {
	return nil
}

// DeleteFileRecord a NoOp version to drop a cached file record
func (c *noOpCache) DeleteFileRecord(ctx context.Context, uuid string) error {
	return nil
}
