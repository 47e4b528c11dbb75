package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Subscription mirrors the subscriptions table.
type Subscription struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	PlanID       string
	PlanName     string
	Status       string
	BillingCycle string
	ImagesLimit  int32
	ImagesUsed   int32
	PeriodStart  time.Time
	PeriodEnd    time.Time
	CreatedAt    sql.NullTime
	UpdatedAt    sql.NullTime
}

// Order mirrors the orders table.
type Order struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	SubscriptionID uuid.NullUUID
	Status         string
	ImageCount     int32
	PriceCents     sql.NullInt64
	CreatedAt      sql.NullTime
	UpdatedAt      sql.NullTime
}

// PaymentReceipt mirrors the payment_receipts table.
type PaymentReceipt struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	CustomerID   uuid.UUID
	Status       string
	ProofKey     sql.NullString
	ProofMeta    pqtype.NullRawMessage
	RejectReason sql.NullString
	SubmittedAt  sql.NullTime
	ResolvedAt   sql.NullTime
}

// Deliverable mirrors the deliverables table.
type Deliverable struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	CreatedBy   uuid.UUID
	Title       string
	Link        string
	Description string
	CreatedAt   sql.NullTime
}

// Job mirrors the jobs table used by the background worker.
type Job struct {
	ID          uuid.UUID
	JobType     string
	Payload     []byte
	Status      string
	Priority    int32
	Attempts    int32
	MaxAttempts int32
	LastError   sql.NullString
	ScheduledAt time.Time
	StartedAt   sql.NullTime
	CompletedAt sql.NullTime
	CreatedAt   sql.NullTime
}
