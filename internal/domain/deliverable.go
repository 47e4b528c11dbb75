// Package domain contains core business types and interfaces.
//
// This file defines the Deliverable type: a staff-curated downloadable
// artifact link shown to a customer. Deliverables are independent of the
// order workflow and deletion is immediate and irreversible.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Deliverable represents a downloadable artifact attached to a customer.
type Deliverable struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	CreatedBy   uuid.UUID // staff member who attached the artifact
	Title       string
	Link        string // validated as a well-formed http(s) URL at creation
	Description string
	CreatedAt   time.Time
}

// AddDeliverableParams contains the parameters for attaching a deliverable.
type AddDeliverableParams struct {
	CustomerID  uuid.UUID
	StaffID     uuid.UUID
	Title       string
	Link        string
	Description string
}
