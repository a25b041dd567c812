package dao

import (
	"context"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/models"
	"gorm.io/gorm"
)

type DaoRegistry struct {
	FileRecord FileRecordDao
}

func GetDaoRegistry(db *gorm.DB) *DaoRegistry {
	reg := DaoRegistry{
		FileRecord: &fileRecordDaoImpl{db: db},
	}
	return &reg
}

type FileRecordDao interface {
	Create(ctx context.Context, fileRecord *models.FileRecord) (api.FileRecordResponse, error)
	Fetch(ctx context.Context, uuid string) (api.FileRecordResponse, error)
	// FetchModel returns the raw row, including the on-disk artifact path.
	FetchModel(ctx context.Context, uuid string) (models.FileRecord, error)
	List(ctx context.Context, paginationData api.PaginationData, filterData api.FilterData) (api.FileRecordCollectionResponse, int64, error)
	Delete(ctx context.Context, uuid string) error
}
