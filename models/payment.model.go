package models

import (
	"time"
)

// PaymentStatus is the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Valid reports whether s is one of the known statuses
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// CanTransition reports whether a record in status s may move to next.
// Only pending records move, and only to a different status.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	return s == PaymentPending && next.Terminal()
}

// Payment is a dues or donation payment correlated by Reference across
// initialize, verify and webhook calls
type Payment struct {
	Reference       string        `json:"reference"`
	UserEmail       string        `json:"user_email"`
	Name            string        `json:"name"`
	Narration       string        `json:"narration"`
	Amount          int64         `json:"amount"` // smallest currency unit
	Currency        string        `json:"currency"`
	Status          PaymentStatus `json:"status"`
	TransactionID   *string       `json:"transaction_id,omitempty"`
	GatewayResponse *string       `json:"gateway_response,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PaymentUpdate lists the mutable fields of a payment; nil fields are left
// untouched
type PaymentUpdate struct {
	TransactionID   *string
	Status          *PaymentStatus
	GatewayResponse *string
}

// Empty reports whether the update would change nothing
func (u PaymentUpdate) Empty() bool {
	return u.TransactionID == nil && u.Status == nil && u.GatewayResponse == nil
}
