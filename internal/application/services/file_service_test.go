package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

// Mocks

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, record *entities.FileRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFileRepository) GetByID(ctx context.Context, id string) (*entities.FileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FileRecord), args.Error(1)
}

func (m *MockFileRepository) Update(ctx context.Context, record *entities.FileRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileRepository) ListByOwner(ctx context.Context, ownerID string, filter repositories.FileFilter) ([]*entities.FileRecord, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.FileRecord), args.Error(1)
}

type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheProvider) Increment(ctx context.Context, key string, windowSeconds int) (int64, error) {
	args := m.Called(ctx, key, windowSeconds)
	return args.Get(0).(int64), args.Error(1)
}

// Helpers

func newFileService(rateLimit int) (*services.FileService, *MockFileRepository, *MockCacheProvider) {
	repo := new(MockFileRepository)
	cache := new(MockCacheProvider)
	service := services.NewFileService(repo, cache, rateLimit, time.Hour)
	return service, repo, cache
}

func ownedRecord() *entities.FileRecord {
	return &entities.FileRecord{
		ID:         "file-1",
		FileName:   "bloodwork.pdf",
		UploadedBy: "owner-1",
		Category:   entities.FileCategoryLabResult,
	}
}

// Tests

func TestFileService_Create(t *testing.T) {
	t.Run("creates record under the rate limit", func(t *testing.T) {
		service, repo, cache := newFileService(20)

		cache.On("Increment", mock.Anything, "ratelimit:upload:owner-1", 3600).Return(int64(1), nil)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.FileRecord) bool {
			return r.UploadedBy == "owner-1" && r.FileName == "bloodwork.pdf"
		})).Return(nil)

		record, err := service.Create(context.Background(), "owner-1", services.CreateFileInput{
			FileName: "bloodwork.pdf",
			MimeType: "application/pdf",
			Size:     1024,
			URL:      "https://files.example.com/bloodwork.pdf",
			Category: entities.FileCategoryLabResult,
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects uploads over the rate limit", func(t *testing.T) {
		service, repo, cache := newFileService(20)

		cache.On("Increment", mock.Anything, "ratelimit:upload:owner-1", 3600).Return(int64(21), nil)

		_, err := service.Create(context.Background(), "owner-1", services.CreateFileInput{
			FileName: "bloodwork.pdf",
			URL:      "https://files.example.com/bloodwork.pdf",
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimited))
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("cache outage does not block uploads", func(t *testing.T) {
		service, repo, cache := newFileService(20)

		cache.On("Increment", mock.Anything, mock.Anything, mock.Anything).
			Return(int64(0), assert.AnError)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := service.Create(context.Background(), "owner-1", services.CreateFileInput{
			FileName: "scan.png",
			URL:      "https://files.example.com/scan.png",
		})

		assert.NoError(t, err)
	})

	t.Run("rejects missing file name", func(t *testing.T) {
		service, _, _ := newFileService(20)

		_, err := service.Create(context.Background(), "owner-1", services.CreateFileInput{
			URL: "https://files.example.com/x",
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestFileService_Get(t *testing.T) {
	t.Run("owner reads own record", func(t *testing.T) {
		service, repo, _ := newFileService(20)

		repo.On("GetByID", mock.Anything, "file-1").Return(ownedRecord(), nil)

		record, err := service.Get(context.Background(), "owner-1", entities.RolePatient, "file-1")

		assert.NoError(t, err)
		assert.Equal(t, "file-1", record.ID)
	})

	t.Run("stranger cannot read a private record", func(t *testing.T) {
		service, repo, _ := newFileService(20)

		repo.On("GetByID", mock.Anything, "file-1").Return(ownedRecord(), nil)

		_, err := service.Get(context.Background(), "stranger", entities.RolePatient, "file-1")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("anyone reads a public record", func(t *testing.T) {
		service, repo, _ := newFileService(20)

		record := ownedRecord()
		record.IsPublic = true
		repo.On("GetByID", mock.Anything, "file-1").Return(record, nil)

		_, err := service.Get(context.Background(), "stranger", entities.RolePatient, "file-1")

		assert.NoError(t, err)
	})

	t.Run("linked patient reads the record", func(t *testing.T) {
		service, repo, _ := newFileService(20)

		record := ownedRecord()
		patientID := "patient-9"
		record.PatientID = &patientID
		repo.On("GetByID", mock.Anything, "file-1").Return(record, nil)

		_, err := service.Get(context.Background(), "patient-9", entities.RolePatient, "file-1")

		assert.NoError(t, err)
	})
}

func TestFileService_Update(t *testing.T) {
	t.Run("owner updates mutable fields", func(t *testing.T) {
		service, repo, _ := newFileService(20)

		repo.On("GetByID", mock.Anything, "file-1").Return(ownedRecord(), nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(r *entities.FileRecord) bool {
			return r.IsPublic && len(r.Tags) == 2
		})).Return(nil)

		isPublic := true
		record, err := service.Update(context.Background(), "owner-1", "file-1", services.UpdateFileInput{
			IsPublic: &isPublic,
			Tags:     []string{"2026", "annual"},
		})

		assert.NoError(t, err)
		assert.True(t, record.IsPublic)
	})

	t.Run("non-owner cannot update", func(t *testing.T) {
		service, repo, _ := newFileService(20)

		repo.On("GetByID", mock.Anything, "file-1").Return(ownedRecord(), nil)

		_, err := service.Update(context.Background(), "stranger", "file-1", services.UpdateFileInput{})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		repo.AssertNotCalled(t, "Update")
	})
}

func TestFileService_Delete(t *testing.T) {
	t.Run("owner deletes own record", func(t *testing.T) {
		service, repo, _ := newFileService(20)

		repo.On("GetByID", mock.Anything, "file-1").Return(ownedRecord(), nil)
		repo.On("Delete", mock.Anything, "file-1").Return(nil)

		err := service.Delete(context.Background(), "owner-1", "file-1")

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("non-owner cannot delete even if record is public", func(t *testing.T) {
		service, repo, _ := newFileService(20)

		record := ownedRecord()
		record.IsPublic = true
		repo.On("GetByID", mock.Anything, "file-1").Return(record, nil)

		err := service.Delete(context.Background(), "stranger", "file-1")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		repo.AssertNotCalled(t, "Delete")
	})
}
