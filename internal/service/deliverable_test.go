package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoyalPrince700/elite-sub002/internal/domain"
)

var deliverableCols = []string{
	"id", "customer_id", "created_by", "title", "link", "description", "created_at",
}

func TestDeliverableService_Add(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	staffID := uuid.New()

	t.Run("creates a valid deliverable", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewDeliverableService(queries, testLogger())

		rows := sqlmock.NewRows(deliverableCols).AddRow(
			uuid.New(), customerID, staffID,
			"Final selects", "https://cdn.example.com/batch-12.zip", "August batch",
			time.Now().UTC(),
		)
		mock.ExpectQuery("INSERT INTO deliverables").
			WithArgs(customerID, staffID, "Final selects", "https://cdn.example.com/batch-12.zip", "August batch").
			WillReturnRows(rows)

		deliverable, err := svc.Add(ctx, domain.AddDeliverableParams{
			CustomerID:  customerID,
			StaffID:     staffID,
			Title:       "Final selects",
			Link:        "https://cdn.example.com/batch-12.zip",
			Description: "August batch",
		})
		require.NoError(t, err)
		assert.Equal(t, "Final selects", deliverable.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("validation failures never reach the database", func(t *testing.T) {
		tests := []struct {
			name       string
			params     domain.AddDeliverableParams
			wantFields []string
		}{
			{
				name: "missing title",
				params: domain.AddDeliverableParams{
					Link:        "https://example.com/a.zip",
					Description: "desc",
				},
				wantFields: []string{"title"},
			},
			{
				name: "malformed link",
				params: domain.AddDeliverableParams{
					Title:       "Edits",
					Link:        "not-a-url",
					Description: "desc",
				},
				wantFields: []string{"link"},
			},
			{
				name: "ftp scheme refused",
				params: domain.AddDeliverableParams{
					Title:       "Edits",
					Link:        "ftp://example.com/a.zip",
					Description: "desc",
				},
				wantFields: []string{"link"},
			},
			{
				name:       "everything missing",
				params:     domain.AddDeliverableParams{},
				wantFields: []string{"title", "link", "description"},
			},
			{
				name: "whitespace only title",
				params: domain.AddDeliverableParams{
					Title:       "   ",
					Link:        "https://example.com/a.zip",
					Description: "desc",
				},
				wantFields: []string{"title"},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, mock, queries := newMockQueries(t)
				svc := NewDeliverableService(queries, testLogger())

				tt.params.CustomerID = customerID
				tt.params.StaffID = staffID

				_, err := svc.Add(ctx, tt.params)
				require.Error(t, err)

				var ve *domain.ValidationError
				require.True(t, errors.As(err, &ve))
				for _, field := range tt.wantFields {
					assert.Contains(t, ve.Fields, field)
				}
				assert.Len(t, ve.Fields, len(tt.wantFields))
				assert.NoError(t, mock.ExpectationsWereMet())
			})
		}
	})
}

func TestDeliverableService_Remove(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("deletes an existing deliverable", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewDeliverableService(queries, testLogger())

		mock.ExpectExec("DELETE FROM deliverables").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.Remove(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing deliverable reads as not found", func(t *testing.T) {
		_, mock, queries := newMockQueries(t)
		svc := NewDeliverableService(queries, testLogger())

		mock.ExpectExec("DELETE FROM deliverables").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := svc.Remove(ctx, id)
		require.Error(t, err)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
}

func TestDeliverableService_ListFor(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	_, mock, queries := newMockQueries(t)
	svc := NewDeliverableService(queries, testLogger())

	newer := uuid.New()
	older := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows(deliverableCols).
		AddRow(newer, customerID, uuid.New(), "Batch 2", "https://example.com/2.zip", "second", now).
		AddRow(older, customerID, uuid.New(), "Batch 1", "https://example.com/1.zip", "first", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM deliverables").
		WithArgs(customerID).
		WillReturnRows(rows)

	deliverables, err := svc.ListFor(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, deliverables, 2)
	assert.Equal(t, newer, deliverables[0].ID)
	assert.Equal(t, older, deliverables[1].ID)
}
