package dao

import (
	"context"
	"testing"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/models"
	"github.com/stretchr/testify/mock"
)

type MockDaoRegistry struct {
	FileRecord MockFileRecordDao
}

func (m *MockDaoRegistry) ToDaoRegistry() *DaoRegistry {
	r := DaoRegistry{
		FileRecord: &m.FileRecord,
	}
	return &r
}

func GetMockDaoRegistry(t *testing.T) *MockDaoRegistry {
	reg := MockDaoRegistry{
		FileRecord: MockFileRecordDao{},
	}
	reg.FileRecord.Mock.Test(t)
	t.Cleanup(func() { reg.FileRecord.AssertExpectations(t) })
	return &reg
}

type MockFileRecordDao struct {
	mock.Mock
}

func (m *MockFileRecordDao) Create(ctx context.Context, fileRecord *models.FileRecord) (api.FileRecordResponse, error) {
	args := m.Called(ctx, fileRecord)
	return args.Get(0).(api.FileRecordResponse), args.Error(1)
}

func (m *MockFileRecordDao) Fetch(ctx context.Context, uuid string) (api.FileRecordResponse, error) {
	args := m.Called(ctx, uuid)
	return args.Get(0).(api.FileRecordResponse), args.Error(1)
}

func (m *MockFileRecordDao) FetchModel(ctx context.Context, uuid string) (models.FileRecord, error) {
	args := m.Called(ctx, uuid)
	return args.Get(0).(models.FileRecord), args.Error(1)
}

func (m *MockFileRecordDao) List(ctx context.Context, paginationData api.PaginationData, filterData api.FilterData) (api.FileRecordCollectionResponse, int64, error) {
	args := m.Called(ctx, paginationData, filterData)
	return args.Get(0).(api.FileRecordCollectionResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockFileRecordDao) Delete(ctx context.Context, uuid string) error {
	args := m.Called(ctx, uuid)
	return args.Error(0)
}
