// Package cache provides an application cache for file record lookups.
package cache

import (
	"context"
	"errors"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/rs/zerolog/log"
)

var NotFound = errors.New("not found in cache")

type Cache interface {
	GetFileRecord(ctx context.Context, uuid string) (*api.FileRecordResponse, error)
	SetFileRecord(ctx context.Context, uuid string, response api.FileRecordResponse) error
	DeleteFileRecord(ctx context.Context, uuid string) error
}

func Initialize() Cache {
	if config.Get().Clients.Redis.Host != "" {
		return NewRedisCache()
	} else {
		log.Logger.Warn().Msg("No application cache in use")
		return NewNoOpCache()
	}
}
