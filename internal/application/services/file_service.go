package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

const uploadRateKeyPrefix = "ratelimit:upload:"

// CreateFileInput carries the fields for registering an upload
type CreateFileInput struct {
	FileName      string                `json:"file_name"`
	MimeType      string                `json:"mime_type"`
	Size          int64                 `json:"size"`
	URL           string                `json:"url"`
	Category      entities.FileCategory `json:"category"`
	PatientID     *string               `json:"patient_id,omitempty"`
	AppointmentID *string               `json:"appointment_id,omitempty"`
	IsPublic      bool                  `json:"is_public"`
	Tags          []string              `json:"tags,omitempty"`
	Metadata      map[string]string     `json:"metadata,omitempty"`
}

// UpdateFileInput carries the mutable fields of a file record
type UpdateFileInput struct {
	FileName *string                `json:"file_name,omitempty"`
	Category *entities.FileCategory `json:"category,omitempty"`
	IsPublic *bool                  `json:"is_public,omitempty"`
	Tags     []string               `json:"tags,omitempty"`
	Metadata map[string]string      `json:"metadata,omitempty"`
}

// FileService handles file metadata with ownership checks and a per-user
// upload rate limit enforced through the cache counter.
type FileService struct {
	repo        repositories.FileRepository
	cache       providers.CacheProvider
	rateLimit   int
	rateWindow  time.Duration
}

// NewFileService creates a new file service
func NewFileService(repo repositories.FileRepository, cache providers.CacheProvider, rateLimit int, rateWindow time.Duration) *FileService {
	return &FileService{
		repo:       repo,
		cache:      cache,
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
	}
}

// Create registers file metadata for the acting user
func (s *FileService) Create(ctx context.Context, userID string, input CreateFileInput) (*entities.FileRecord, error) {
	if strings.TrimSpace(input.FileName) == "" {
		return nil, apperrors.NewValidationError("file_name is required")
	}
	if strings.TrimSpace(input.URL) == "" {
		return nil, apperrors.NewValidationError("url is required")
	}
	if input.Size < 0 {
		return nil, apperrors.NewValidationError("size cannot be negative")
	}
	if input.Category == "" {
		input.Category = entities.FileCategoryOther
	}

	if err := s.checkRateLimit(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	record := &entities.FileRecord{
		ID:            uuid.New().String(),
		FileName:      strings.TrimSpace(input.FileName),
		MimeType:      input.MimeType,
		Size:          input.Size,
		URL:           input.URL,
		UploadedBy:    userID,
		Category:      input.Category,
		PatientID:     input.PatientID,
		AppointmentID: input.AppointmentID,
		IsPublic:      input.IsPublic,
		Tags:          input.Tags,
		Metadata:      input.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	log.Info().Str("file_id", record.ID).Str("user_id", userID).Msg("file record created")
	return record, nil
}

// Get retrieves a file record visible to the acting user
func (s *FileService) Get(ctx context.Context, userID string, role entities.Role, id string) (*entities.FileRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.CanRead(userID, role) {
		return nil, apperrors.NewForbiddenError("user may not read this file")
	}
	return record, nil
}

// Update applies owner-only changes to a file record
func (s *FileService) Update(ctx context.Context, userID, id string, input UpdateFileInput) (*entities.FileRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.CanMutate(userID) {
		return nil, apperrors.NewForbiddenError("only the uploader may modify this file")
	}

	if input.FileName != nil {
		if strings.TrimSpace(*input.FileName) == "" {
			return nil, apperrors.NewValidationError("file_name cannot be empty")
		}
		record.FileName = strings.TrimSpace(*input.FileName)
	}
	if input.Category != nil {
		record.Category = *input.Category
	}
	if input.IsPublic != nil {
		record.IsPublic = *input.IsPublic
	}
	if input.Tags != nil {
		record.Tags = input.Tags
	}
	if input.Metadata != nil {
		record.Metadata = input.Metadata
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a file record. Owner only.
func (s *FileService) Delete(ctx context.Context, userID, id string) error {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !record.CanMutate(userID) {
		return apperrors.NewForbiddenError("only the uploader may delete this file")
	}
	return s.repo.Delete(ctx, id)
}

// ListOwn lists the acting user's uploads
func (s *FileService) ListOwn(ctx context.Context, userID string, filter repositories.FileFilter) ([]*entities.FileRecord, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	records, err := s.repo.ListByOwner(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*entities.FileRecord{}
	}
	return records, nil
}

func (s *FileService) checkRateLimit(ctx context.Context, userID string) error {
	if s.cache == nil || s.rateLimit <= 0 {
		return nil
	}

	key := uploadRateKeyPrefix + userID
	count, err := s.cache.Increment(ctx, key, int(s.rateWindow.Seconds()))
	if err != nil {
		// Rate limiting is advisory; a cache outage must not block uploads.
		log.Warn().Err(err).Str("user_id", userID).Msg("rate limit counter unavailable")
		return nil
	}
	if count > int64(s.rateLimit) {
		return apperrors.NewRateLimitedError(
			fmt.Sprintf("upload limit of %d per %s exceeded", s.rateLimit, s.rateWindow))
	}
	return nil
}
