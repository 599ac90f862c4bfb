// Package services holds the payment reconciliation flow: initialize a
// checkout, persist it as pending, then settle it from the verify endpoint
// or the gateway's webhook.
package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"alumni-portal/apperr"
	"alumni-portal/gateway"
	"alumni-portal/models"
	"alumni-portal/store"
	"alumni-portal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is charged when a request names none
const DefaultCurrency = "NGN"

// PaymentStore is the persistence the flow needs
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	Update(ctx context.Context, reference string, u models.PaymentUpdate) error
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	GetAllByEmail(ctx context.Context, email string) ([]models.Payment, error)
}

// Gateway is the payment provider
type Gateway interface {
	Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error)
	ValidateSignature(body []byte, signature string) bool
}

// Notifier is told when a payment settles successfully
type Notifier interface {
	SendPaymentReceipt(toEmail string, p *models.Payment) error
}

// InitializeInput is the payer's checkout request
type InitializeInput struct {
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"` // major units
	Currency  string          `json:"currency,omitempty"`
	Narration string          `json:"narration"`
}

// InitializeOutput tells the caller where to send the payer
type InitializeOutput struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
	AccessCode  string `json:"access_code"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// VerifyOutput is the settled (or still pending) state of a payment
type VerifyOutput struct {
	Status models.PaymentStatus `json:"status"`
	Data   *models.Payment      `json:"data"`
}

// RecordInput is a payment the signed-in member reports directly. Status
// and transaction id come only from the gateway, so neither is accepted.
type RecordInput struct {
	Reference string `json:"reference"`
	Name      string `json:"name"`
	Narration string `json:"narration"`
	Amount    int64  `json:"amount"` // smallest currency unit
	Currency  string `json:"currency,omitempty"`
}

// PaymentService runs the reconciliation flow
type PaymentService struct {
	store       PaymentStore
	gateway     Gateway
	notifier    Notifier
	callbackURL string
	newRef      func() string
}

// NewPaymentService wires the flow; notifier may be nil
func NewPaymentService(s PaymentStore, g Gateway, notifier Notifier, callbackURL string) *PaymentService {
	return &PaymentService{
		store:       s,
		gateway:     g,
		notifier:    notifier,
		callbackURL: callbackURL,
		newRef:      NewReference,
	}
}

// NewReference generates a payment reference
func NewReference() string {
	return "ALM-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Initialize opens a checkout for in and stores it as pending. A store
// failure after the gateway accepted the checkout is reported but not
// compensated.
func (s *PaymentService) Initialize(ctx context.Context, in InitializeInput) (*InitializeOutput, error) {
	name := strings.TrimSpace(in.Name)
	email := utils.NormalizeEmail(in.Email)
	narration := strings.TrimSpace(in.Narration)
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	if name == "" {
		return nil, apperr.Validation("Name is required")
	}
	if !utils.ValidEmail(email) {
		return nil, apperr.Validation("A valid email is required")
	}
	if len(currency) != 3 {
		return nil, apperr.Validation("Currency must be a 3-letter code")
	}
	amount, err := utils.ToMinorUnits(in.Amount)
	if err != nil {
		return nil, err
	}
	if narration == "" {
		narration = "Alumni association payment"
	}

	reference := s.newRef()
	checkout, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Reference:   reference,
		Email:       email,
		Name:        name,
		Amount:      amount,
		Currency:    currency,
		Narration:   narration,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		Reference: reference,
		UserEmail: email,
		Name:      name,
		Narration: narration,
		Amount:    amount,
		Currency:  currency,
		Status:    models.PaymentPending,
	}
	if err := s.store.Create(ctx, payment); err != nil {
		log.Printf("ERROR: checkout opened for reference '%s' but the payment was not stored: %v", reference, err)
		return nil, err
	}

	log.Printf("INFO: initialized payment '%s' for %s (%d %s)", reference, email, amount, currency)
	return &InitializeOutput{
		Reference:   reference,
		CheckoutURL: checkout.CheckoutURL,
		AccessCode:  checkout.AccessCode,
		Amount:      amount,
		Currency:    currency,
		Status:      string(models.PaymentPending),
	}, nil
}

// Verify asks the gateway about reference and settles the stored payment
// accordingly. Unknown references fail with NotFound before the gateway is
// called.
func (s *PaymentService) Verify(ctx context.Context, reference string) (*VerifyOutput, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperr.Validation("Reference is required")
	}

	payment, err := s.store.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return &VerifyOutput{Status: payment.Status, Data: payment}, nil
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	payment, err = s.settle(ctx, payment, gateway.StatusForTransaction(result.Transaction.Status), &result.Transaction, string(result.Raw))
	if err != nil {
		return nil, err
	}
	return &VerifyOutput{Status: payment.Status, Data: payment}, nil
}

// HandleWebhook authenticates and applies a gateway notification. The
// store is only touched after the signature checks out.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if strings.TrimSpace(signature) == "" {
		return apperr.Validation("Missing webhook signature")
	}
	if !s.gateway.ValidateSignature(body, signature) {
		log.Println("WARN: webhook rejected, invalid signature")
		return apperr.Auth("Invalid webhook signature")
	}

	evt, err := gateway.ParseEvent(body)
	if err != nil {
		return apperr.Validation("Invalid webhook payload")
	}

	status, ok := gateway.StatusForEvent(evt.Event)
	if !ok {
		log.Printf("INFO: ignoring webhook event '%s'", evt.Event)
		return nil
	}
	if evt.Data.Reference == "" {
		return apperr.Validation("Webhook payload has no reference")
	}

	payment, err := s.store.GetByReference(ctx, evt.Data.Reference)
	if err != nil {
		return err
	}

	log.Printf("INFO: webhook '%s' received for reference '%s'", evt.Event, evt.Data.Reference)
	_, err = s.settle(ctx, payment, status, &evt.Data, string(body))
	return err
}

// Record stores a payment reported by the signed-in member as pending; it
// settles only through Verify or the webhook. Reporting a reference the
// member already owns returns the stored record unchanged.
func (s *PaymentService) Record(ctx context.Context, email string, in RecordInput) (*models.Payment, error) {
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return nil, apperr.Validation("Reference is required")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("Amount must be greater than zero")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, apperr.Validation("Currency must be a 3-letter code")
	}

	existing, err := s.store.GetByReference(ctx, reference)
	switch {
	case err == nil:
		if existing.UserEmail != email {
			return nil, store.ErrDuplicatePayment
		}
		return existing, nil
	case !apperr.Is(err, apperr.KindNotFound):
		return nil, err
	}

	payment := &models.Payment{
		Reference: reference,
		UserEmail: email,
		Name:      strings.TrimSpace(in.Name),
		Narration: strings.TrimSpace(in.Narration),
		Amount:    in.Amount,
		Currency:  currency,
		Status:    models.PaymentPending,
	}
	if err := s.store.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// History lists the member's payments, newest first
func (s *PaymentService) History(ctx context.Context, email string) ([]models.Payment, error) {
	return s.store.GetAllByEmail(ctx, email)
}

// settle moves payment to status and records what the gateway said. A
// payment that is already terminal is returned as stored. A success whose
// amount or currency differs from what was stored settles as failed.
func (s *PaymentService) settle(ctx context.Context, payment *models.Payment, status models.PaymentStatus, tx *gateway.Transaction, raw string) (*models.Payment, error) {
	if !payment.Status.CanTransition(status) {
		return payment, nil
	}
	if status == models.PaymentSuccess && !chargeMatches(payment, tx) {
		log.Printf("WARN: gateway charged %d %s but reference '%s' expects %d %s, marking failed",
			tx.Amount, tx.Currency, payment.Reference, payment.Amount, payment.Currency)
		status = models.PaymentFailed
	}

	update := models.PaymentUpdate{Status: &status, GatewayResponse: &raw}
	if id := tx.TransactionID(); id != "" {
		update.TransactionID = &id
	}

	err := s.store.Update(ctx, payment.Reference, update)
	if errors.Is(err, store.ErrPaymentSettled) {
		// Lost a race with the other settlement path; report what won.
		return s.store.GetByReference(ctx, payment.Reference)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.store.GetByReference(ctx, payment.Reference)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: payment '%s' settled as %s", updated.Reference, updated.Status)

	if updated.Status == models.PaymentSuccess && s.notifier != nil {
		go func(p models.Payment) {
			if err := s.notifier.SendPaymentReceipt(p.UserEmail, &p); err != nil {
				log.Printf("ERROR: failed to send receipt to %s: %v", p.UserEmail, err)
			}
		}(*updated)
	}
	return updated, nil
}

func chargeMatches(payment *models.Payment, tx *gateway.Transaction) bool {
	return tx.Amount == payment.Amount && strings.EqualFold(tx.Currency, payment.Currency)
}
