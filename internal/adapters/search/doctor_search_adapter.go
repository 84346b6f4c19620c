package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	tsclient "github.com/carebridge/telehealth-backend/internal/infrastructure/clients/typesense"
)

// DoctorSearchAdapter implements the doctor directory search using Typesense
type DoctorSearchAdapter struct {
	client *tsclient.Client
}

var _ providers.DoctorSearchIndex = (*DoctorSearchAdapter)(nil)

// NewDoctorSearchAdapter creates a new Typesense-backed doctor search adapter
func NewDoctorSearchAdapter(client *tsclient.Client) *DoctorSearchAdapter {
	return &DoctorSearchAdapter{client: client}
}

// Index upserts a doctor document into the directory index
func (a *DoctorSearchAdapter) Index(ctx context.Context, doc *providers.DoctorDocument) error {
	document := map[string]interface{}{
		"id":               doc.ID,
		"user_id":          doc.UserID,
		"name":             doc.Name,
		"specialty":        doc.Specialty,
		"bio":              doc.Bio,
		"consultation_fee": doc.ConsultationFee,
		"years_experience": doc.YearsExperience,
		"is_available":     doc.IsAvailable,
		"created_at":       doc.CreatedAt,
	}

	_, err := a.client.Client().Collection(tsclient.DoctorsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index doctor: %w", err)
	}
	return nil
}

// Remove deletes a doctor document from the directory index
func (a *DoctorSearchAdapter) Remove(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.DoctorsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove doctor from index: %w", err)
	}
	return nil
}

// Search queries the doctor directory by name, specialty and bio
func (a *DoctorSearchAdapter) Search(ctx context.Context, query providers.DoctorSearchQuery) ([]*providers.DoctorDocument, error) {
	q := query.Query
	if q == "" {
		q = "*"
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	page := 1
	if query.Offset > 0 {
		page = query.Offset/limit + 1
	}

	var filters []string
	if query.Specialty != "" {
		filters = append(filters, fmt.Sprintf("specialty:=%s", query.Specialty))
	}
	if query.AvailableOnly {
		filters = append(filters, "is_available:=true")
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name,specialty,bio"),
		Page:    pointer.Int(page),
		PerPage: pointer.Int(limit),
	}
	if len(filters) > 0 {
		searchParams.FilterBy = pointer.String(strings.Join(filters, " && "))
	}

	result, err := a.client.Client().Collection(tsclient.DoctorsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search doctors: %w", err)
	}

	docs := []*providers.DoctorDocument{}
	if result.Hits == nil {
		return docs, nil
	}
	for _, hit := range *result.Hits {
		raw := *hit.Document

		doc := &providers.DoctorDocument{}
		if val, ok := raw["id"].(string); ok {
			doc.ID = val
		}
		if val, ok := raw["user_id"].(string); ok {
			doc.UserID = val
		}
		if val, ok := raw["name"].(string); ok {
			doc.Name = val
		}
		if val, ok := raw["specialty"].(string); ok {
			doc.Specialty = val
		}
		if val, ok := raw["bio"].(string); ok {
			doc.Bio = val
		}
		if val, ok := raw["consultation_fee"].(float64); ok {
			doc.ConsultationFee = val
		}
		if val, ok := raw["years_experience"].(float64); ok {
			doc.YearsExperience = int(val)
		}
		if val, ok := raw["is_available"].(bool); ok {
			doc.IsAvailable = val
		}
		if val, ok := raw["created_at"].(float64); ok {
			doc.CreatedAt = int64(val)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
