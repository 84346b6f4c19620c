package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
)

func messageRowColumns() []string {
	return []string{"id", "consultation_id", "sender_id", "sender_name", "content", "type", "timestamp"}
}

func TestMessageAdapter_ListByConsultation(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("before cursor selects the adjacent page, newest-first in SQL", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewMessageAdapter(client)

		rows := sqlmock.NewRows(messageRowColumns()).
			AddRow("msg-3", "cons-1", "user-1", "Ada Okafor", "third", "text", base.Add(3*time.Minute)).
			AddRow("msg-2", "cons-1", "user-2", "Tayo Bello", "second", "text", base.Add(2*time.Minute))

		mock.ExpectQuery(`SELECT .+ FROM "consultation_messages" AS "m" .+ WHERE \(\("m"\."consultation_id" = 'cons-1'\) AND \("m"\."timestamp" < .+\)\) ORDER BY "m"\."timestamp" DESC LIMIT 2`).
			WillReturnRows(rows)

		messages, err := adapter.ListByConsultation(context.Background(), "cons-1", repositories.MessageFilter{
			Limit:  2,
			Before: base.Add(4 * time.Minute),
		})

		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "msg-2", messages[0].ID)
		assert.Equal(t, "msg-3", messages[1].ID)
		assert.True(t, messages[0].Timestamp.Before(messages[1].Timestamp))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without a cursor returns the latest page in ascending order", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewMessageAdapter(client)

		rows := sqlmock.NewRows(messageRowColumns()).
			AddRow("msg-2", "cons-1", "user-2", "Tayo Bello", "second", "text", base.Add(2*time.Minute)).
			AddRow("msg-1", "cons-1", "user-1", "Ada Okafor", "first", "text", base.Add(time.Minute))

		mock.ExpectQuery(`SELECT .+ FROM "consultation_messages" AS "m" .+ WHERE \("m"\."consultation_id" = 'cons-1'\) ORDER BY "m"\."timestamp" DESC LIMIT 2`).
			WillReturnRows(rows)

		messages, err := adapter.ListByConsultation(context.Background(), "cons-1", repositories.MessageFilter{Limit: 2})

		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "msg-1", messages[0].ID)
		assert.Equal(t, "msg-2", messages[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
