package repository

import (
	"context"

	"github.com/google/uuid"
)

const deliverableColumns = `id, customer_id, created_by, title, link, description, created_at`

func scanDeliverable(row interface{ Scan(...interface{}) error }) (Deliverable, error) {
	var d Deliverable
	err := row.Scan(
		&d.ID,
		&d.CustomerID,
		&d.CreatedBy,
		&d.Title,
		&d.Link,
		&d.Description,
		&d.CreatedAt,
	)
	return d, err
}

const createDeliverable = `
INSERT INTO deliverables (customer_id, created_by, title, link, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + deliverableColumns + `
`

// CreateDeliverableParams holds the arguments for attaching a deliverable.
type CreateDeliverableParams struct {
	CustomerID  uuid.UUID
	CreatedBy   uuid.UUID
	Title       string
	Link        string
	Description string
}

// CreateDeliverable inserts a new deliverable for a customer.
func (q *Queries) CreateDeliverable(ctx context.Context, arg CreateDeliverableParams) (Deliverable, error) {
	return scanDeliverable(q.db.QueryRowContext(ctx, createDeliverable,
		arg.CustomerID,
		arg.CreatedBy,
		arg.Title,
		arg.Link,
		arg.Description,
	))
}

const deleteDeliverable = `
DELETE FROM deliverables
WHERE id = $1
`

// DeleteDeliverable hard-deletes a deliverable. Returns the number of rows
// removed so the caller can report not-found.
func (q *Queries) DeleteDeliverable(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDeliverable, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listDeliverablesByCustomerID = `
SELECT ` + deliverableColumns + `
FROM deliverables
WHERE customer_id = $1
ORDER BY created_at DESC
`

// ListDeliverablesByCustomerID returns a customer's deliverables, most
// recent first.
func (q *Queries) ListDeliverablesByCustomerID(ctx context.Context, customerID uuid.UUID) ([]Deliverable, error) {
	rows, err := q.db.QueryContext(ctx, listDeliverablesByCustomerID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Deliverable
	for rows.Next() {
		d, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
