// Package service contains the business logic layer.
//
// This file implements the deliverable registry: staff-curated downloadable
// artifact links attached to a customer, independent of any order.
package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/RoyalPrince700/elite-sub002/internal/domain"
	"github.com/RoyalPrince700/elite-sub002/internal/metrics"
	"github.com/RoyalPrince700/elite-sub002/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// DeliverableService defines operations on customer deliverables.
type DeliverableService interface {
	// Add attaches a deliverable to a customer. Title, link, and
	// description are required (non-empty after trimming) and the link must
	// parse as a well-formed http(s) URL; failures surface as a field-level
	// *domain.ValidationError and nothing is created.
	Add(ctx context.Context, params domain.AddDeliverableParams) (*domain.Deliverable, error)

	// Remove hard-deletes a deliverable. Irreversible.
	// Returns domain.ENOTFOUND if the id does not exist.
	Remove(ctx context.Context, id uuid.UUID) error

	// ListFor returns the customer's deliverables, most recent first.
	ListFor(ctx context.Context, customerID uuid.UUID) ([]domain.Deliverable, error)
}

// =============================================================================
// Implementation
// =============================================================================

type deliverableService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewDeliverableService creates a new DeliverableService.
func NewDeliverableService(queries *repository.Queries, logger *slog.Logger) DeliverableService {
	return &deliverableService{
		queries: queries,
		logger:  logger,
	}
}

// Add attaches a deliverable to a customer.
func (s *deliverableService) Add(ctx context.Context, params domain.AddDeliverableParams) (*domain.Deliverable, error) {
	const op = "deliverable.add"

	title := strings.TrimSpace(params.Title)
	link := strings.TrimSpace(params.Link)
	description := strings.TrimSpace(params.Description)

	fields := map[string]string{}
	if title == "" {
		fields["title"] = "title is required"
	}
	if link == "" {
		fields["link"] = "link is required"
	} else if !validArtifactURL(link) {
		fields["link"] = "link must be a well-formed http(s) URL"
	}
	if description == "" {
		fields["description"] = "description is required"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Op: op, Fields: fields}
	}

	row, err := s.queries.CreateDeliverable(ctx, repository.CreateDeliverableParams{
		CustomerID:  params.CustomerID,
		CreatedBy:   params.StaffID,
		Title:       title,
		Link:        link,
		Description: description,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create deliverable")
	}

	deliverable := rowToDeliverable(row)
	metrics.DeliverablesCreated.Inc()
	s.logger.Info("deliverable created",
		"deliverable_id", deliverable.ID,
		"customer_id", deliverable.CustomerID,
		"staff_id", deliverable.CreatedBy,
	)
	return deliverable, nil
}

// Remove hard-deletes a deliverable.
func (s *deliverableService) Remove(ctx context.Context, id uuid.UUID) error {
	const op = "deliverable.remove"

	affected, err := s.queries.DeleteDeliverable(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete deliverable")
	}
	if affected == 0 {
		return domain.NotFound(op, "deliverable", id.String())
	}

	s.logger.Info("deliverable deleted", "deliverable_id", id)
	return nil
}

// ListFor returns the customer's deliverables.
func (s *deliverableService) ListFor(ctx context.Context, customerID uuid.UUID) ([]domain.Deliverable, error) {
	const op = "deliverable.list"

	rows, err := s.queries.ListDeliverablesByCustomerID(ctx, customerID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list deliverables")
	}

	deliverables := make([]domain.Deliverable, 0, len(rows))
	for _, row := range rows {
		deliverables = append(deliverables, *rowToDeliverable(row))
	}
	return deliverables, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// validArtifactURL reports whether link parses as an absolute http(s) URL
// with a host.
func validArtifactURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// rowToDeliverable converts a repository deliverable row to a domain
// Deliverable.
func rowToDeliverable(row repository.Deliverable) *domain.Deliverable {
	deliverable := &domain.Deliverable{
		ID:          row.ID,
		CustomerID:  row.CustomerID,
		CreatedBy:   row.CreatedBy,
		Title:       row.Title,
		Link:        row.Link,
		Description: row.Description,
	}
	if row.CreatedAt.Valid {
		deliverable.CreatedAt = row.CreatedAt.Time
	}
	return deliverable
}
