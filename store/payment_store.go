package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"alumni-portal/apperr"
	"alumni-portal/models"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrPaymentNotFound  = apperr.NotFound("Payment not found")
	ErrDuplicatePayment = apperr.Conflict("A payment with this reference already exists")
	// ErrPaymentSettled is returned when an update would move a payment out
	// of a terminal status.
	ErrPaymentSettled = apperr.Conflict("Payment is already settled")
)

const paymentColumns = `reference, user_email, name, narration, amount, currency, status,
	transaction_id, gateway_response, created_at, updated_at`

// PaymentStore reads and writes the payments table
type PaymentStore struct {
	db  *DB
	now func() time.Time
}

func NewPaymentStore(db *DB) *PaymentStore {
	return &PaymentStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts p. CreatedAt and UpdatedAt are set when zero.
func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.Reference,
		p.UserEmail,
		p.Name,
		p.Narration,
		p.Amount,
		p.Currency,
		string(p.Status),
		nullString(p.TransactionID),
		nullString(p.GatewayResponse),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return apperr.Store("Error creating payment", err)
	}
	return nil
}

// Update writes the non-nil fields of u to the payment with reference. A
// status change only applies to a pending payment; anything else fails with
// ErrPaymentSettled, so of two racing settlements exactly one wins.
func (s *PaymentStore) Update(ctx context.Context, reference string, u models.PaymentUpdate) error {
	var sets []string
	var args []any
	if u.TransactionID != nil {
		sets = append(sets, "transaction_id = ?")
		args = append(args, *u.TransactionID)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	if u.GatewayResponse != nil {
		sets = append(sets, "gateway_response = ?")
		args = append(args, *u.GatewayResponse)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now())

	query := "UPDATE payments SET " + strings.Join(sets, ", ") + " WHERE reference = ?"
	args = append(args, reference)
	if u.Status != nil {
		query += " AND status = ?"
		args = append(args, string(models.PaymentPending))
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return apperr.Store("Error updating payment", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Store("Error updating payment", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: tell a missing row apart from a settled one.
	if _, err := s.GetByReference(ctx, reference); err != nil {
		return err
	}
	return ErrPaymentSettled
}

// GetByReference returns ErrPaymentNotFound when no row matches
func (s *PaymentStore) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+paymentColumns+` FROM payments WHERE reference = ?`), reference)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, apperr.Store("Error fetching payment", err)
	}
	return p, nil
}

// GetAllByEmail lists the payments made by email, newest first
func (s *PaymentStore) GetAllByEmail(ctx context.Context, email string) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`SELECT `+paymentColumns+` FROM payments
		WHERE user_email = ? ORDER BY created_at DESC, reference`), email)
	if err != nil {
		return nil, apperr.Store("Error fetching payments", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, apperr.Store("Error reading payments", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("Error reading payments", err)
	}
	return payments, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (*models.Payment, error) {
	var p models.Payment
	var status string
	var txID, gatewayResp sql.NullString
	if err := row.Scan(
		&p.Reference,
		&p.UserEmail,
		&p.Name,
		&p.Narration,
		&p.Amount,
		&p.Currency,
		&status,
		&txID,
		&gatewayResp,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = models.PaymentStatus(status)
	if txID.Valid {
		p.TransactionID = &txID.String
	}
	if gatewayResp.Valid {
		p.GatewayResponse = &gatewayResp.String
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
