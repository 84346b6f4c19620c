package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	"github.com/carebridge/telehealth-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
)

// MessageAdapter implements the MessageRepository interface.
// consultation_messages is insert-only.
type MessageAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMessageAdapter creates a new message adapter
func NewMessageAdapter(client *postgres.Client) repositories.MessageRepository {
	return &MessageAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a new immutable message
func (a *MessageAdapter) Create(ctx context.Context, message *entities.Message) error {
	record := goqu.Record{
		"id":              message.ID,
		"consultation_id": message.ConsultationID,
		"sender_id":       message.SenderID,
		"content":         message.Content,
		"type":            message.Type,
		"timestamp":       message.Timestamp,
	}

	query, args, err := a.db.Insert("consultation_messages").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create message", err)
	}
	return nil
}

// ListByConsultation retrieves a page of messages joined against users
// for the sender display name. The query orders newest-first so the
// limit selects the rows adjacent to the Before cursor, then the page
// is reversed in memory so callers always see ascending order.
func (a *MessageAdapter) ListByConsultation(ctx context.Context, consultationID string, filter repositories.MessageFilter) ([]*entities.Message, error) {
	ds := a.db.Select(
		goqu.I("m.id"),
		goqu.I("m.consultation_id"),
		goqu.I("m.sender_id"),
		goqu.L("COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.email)"),
		goqu.I("m.content"),
		goqu.I("m.type"),
		goqu.I("m.timestamp"),
	).
		From(goqu.T("consultation_messages").As("m")).
		LeftJoin(
			goqu.T("users").As("u"),
			goqu.On(goqu.Ex{"u.id": goqu.I("m.sender_id")}),
		).
		Where(goqu.Ex{"m.consultation_id": consultationID})

	if !filter.Before.IsZero() {
		ds = ds.Where(goqu.I("m.timestamp").Lt(filter.Before))
	}

	ds = ds.Order(goqu.I("m.timestamp").Desc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list messages", err)
	}
	defer rows.Close()

	var messages []*entities.Message
	for rows.Next() {
		message := &entities.Message{}
		err := rows.Scan(
			&message.ID,
			&message.ConsultationID,
			&message.SenderID,
			&message.SenderName,
			&message.Content,
			&message.Type,
			&message.Timestamp,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan message", err)
		}
		messages = append(messages, message)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
