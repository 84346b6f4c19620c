package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return postgres.NewClientWithDB(mockDB), mock
}

func TestConsultationAdapter_MarkActive(t *testing.T) {
	t.Run("transitions created consultation and reports the row was claimed", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewConsultationAdapter(client)

		mock.ExpectExec(`UPDATE "consultations" SET .+ WHERE \(\("id" = 'cons-1'\) AND \("status" = 'created'\)\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		activated, err := adapter.MarkActive(context.Background(), "cons-1", time.Now())

		require.NoError(t, err)
		assert.True(t, activated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports false when the status guard matches no row", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewConsultationAdapter(client)

		mock.ExpectExec(`UPDATE "consultations" SET .+ WHERE \(\("id" = 'cons-1'\) AND \("status" = 'created'\)\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		activated, err := adapter.MarkActive(context.Background(), "cons-1", time.Now())

		require.NoError(t, err)
		assert.False(t, activated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConsultationAdapter_Complete(t *testing.T) {
	t.Run("completes a consultation that is not yet completed", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewConsultationAdapter(client)

		mock.ExpectExec(`UPDATE "consultations" SET .+ WHERE \(\("id" = 'cons-1'\) AND \("status" != 'completed'\)\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.Complete(context.Background(), "cons-1", "patient is recovering", time.Now())

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns invalid state when the consultation is already completed", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewConsultationAdapter(client)

		mock.ExpectExec(`UPDATE "consultations" SET .+ WHERE \(\("id" = 'cons-1'\) AND \("status" != 'completed'\)\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.Complete(context.Background(), "cons-1", "", time.Now())

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
