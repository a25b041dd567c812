package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/file-drop/file-drop-backend/pkg/api"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/file-drop/file-drop-backend/pkg/models"
	"gorm.io/gorm"
)

type fileRecordDaoImpl struct {
	db *gorm.DB
}

func (d *fileRecordDaoImpl) Create(ctx context.Context, fileRecord *models.FileRecord) (api.FileRecordResponse, error) {
	result := d.db.WithContext(ctx).Create(fileRecord)
	if result.Error != nil {
		return api.FileRecordResponse{}, DBErrorToApi(result.Error)
	}
	return fileRecordModelToApi(*fileRecord), nil
}

func (d *fileRecordDaoImpl) Fetch(ctx context.Context, uuid string) (api.FileRecordResponse, error) {
	record, err := d.FetchModel(ctx, uuid)
	if err != nil {
		return api.FileRecordResponse{}, err
	}
	return fileRecordModelToApi(record), nil
}

func (d *fileRecordDaoImpl) FetchModel(ctx context.Context, uuid string) (models.FileRecord, error) {
	var record models.FileRecord
	result := d.db.WithContext(ctx).Where("uuid = ?", UuidifyString(uuid)).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return models.FileRecord{}, ce.NewRecordNotFoundError(uuid)
		}
		return models.FileRecord{}, DBErrorToApi(result.Error)
	}
	return record, nil
}

func (d *fileRecordDaoImpl) List(ctx context.Context, paginationData api.PaginationData, filterData api.FilterData) (api.FileRecordCollectionResponse, int64, error) {
	var totalRecords int64
	var records []models.FileRecord

	filteredDB := d.filteredDbForList(ctx, filterData)
	if filteredDB.Error != nil {
		return api.FileRecordCollectionResponse{}, 0, DBErrorToApi(filteredDB.Error)
	}

	sortMap := map[string]string{
		"original_filename": "original_filename",
		"file_type":         "file_type",
		"size":              "size",
		"uploaded_at":       "created_at",
	}
	order := convertSortByToSQL(paginationData.SortBy, sortMap, "created_at desc")

	result := filteredDB.
		Model(&models.FileRecord{}).
		Count(&totalRecords).
		Order(order).
		Limit(paginationData.Limit).
		Offset(paginationData.Offset).
		Find(&records)
	if result.Error != nil {
		return api.FileRecordCollectionResponse{}, 0, DBErrorToApi(result.Error)
	}

	responses := make([]api.FileRecordResponse, len(records))
	for i, record := range records {
		responses[i] = fileRecordModelToApi(record)
	}
	return api.FileRecordCollectionResponse{Data: responses}, totalRecords, nil
}

func (d *fileRecordDaoImpl) filteredDbForList(ctx context.Context, filterData api.FilterData) *gorm.DB {
	filteredDB := d.db.WithContext(ctx)

	if filterData.Search != "" {
		containsSearch := "%" + filterData.Search + "%"
		filteredDB = filteredDB.Where("original_filename LIKE ?", containsSearch)
	}
	if filterData.FileType != "" {
		filteredDB = filteredDB.Where("file_type = ?", filterData.FileType)
	}
	return filteredDB
}

func (d *fileRecordDaoImpl) Delete(ctx context.Context, uuid string) error {
	var record models.FileRecord
	result := d.db.WithContext(ctx).Where("uuid = ?", UuidifyString(uuid)).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ce.NewRecordNotFoundError(uuid)
		}
		return DBErrorToApi(result.Error)
	}

	if err := d.db.WithContext(ctx).Delete(&record).Error; err != nil {
		return DBErrorToApi(err)
	}
	return nil
}

func fileRecordModelToApi(record models.FileRecord) api.FileRecordResponse {
	return api.FileRecordResponse{
		UUID:             record.UUID,
		OriginalFilename: record.OriginalFilename,
		FileType:         record.FileType,
		Size:             record.Size,
		UploadedAt:       record.CreatedAt,
		File:             api.FileDownloadPath(record.UUID),
	}
}

// DBErrorToApi converts a database error to a DaoError
func DBErrorToApi(e error) *ce.DaoError {
	if e == nil {
		return nil
	}

	var daoError *ce.DaoError
	if errors.As(e, &daoError) {
		return daoError
	}

	var modelError models.Error
	if errors.As(e, &modelError) {
		return &ce.DaoError{BadValidation: modelError.Validation, Message: modelError.Message}
	}

	msg := e.Error()
	if strings.Contains(msg, "duplicate key value") {
		return &ce.DaoError{BadValidation: true, Message: "Record already exists.", Err: e}
	}
	return &ce.DaoError{Message: fmt.Sprintf("database error: %v", e), Err: e}
}
