package controllers

import (
	"context"
	"io"
	"net/http"
	"time"

	"alumni-portal/apperr"
	"alumni-portal/gateway"
	"alumni-portal/middleware"
	"alumni-portal/models"
	"alumni-portal/services"
	"alumni-portal/utils"
)

// Gateway calls get more room than plain database work
const gatewayTimeout = 20 * time.Second

const maxWebhookBody = 1 << 20

// PaymentFlow is the reconciliation flow behind the payment endpoints
type PaymentFlow interface {
	Initialize(ctx context.Context, in services.InitializeInput) (*services.InitializeOutput, error)
	Verify(ctx context.Context, reference string) (*services.VerifyOutput, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	Record(ctx context.Context, email string, in services.RecordInput) (*models.Payment, error)
	History(ctx context.Context, email string) ([]models.Payment, error)
}

// PaymentController exposes the payment flow over HTTP
type PaymentController struct {
	Flow        PaymentFlow
	ShowDetails bool
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(flow PaymentFlow, showDetails bool) *PaymentController {
	return &PaymentController{Flow: flow, ShowDetails: showDetails}
}

type paymentResponse struct {
	Payment *models.Payment `json:"payment"`
}

type historyResponse struct {
	Payments []models.Payment `json:"payments"`
}

// Initialize opens a gateway checkout
func (pc *PaymentController) Initialize(w http.ResponseWriter, r *http.Request) {
	var input services.InitializeInput
	if err := decode(r, &input); err != nil {
		utils.WriteError(w, err, pc.ShowDetails)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()
	out, err := pc.Flow.Initialize(ctx, input)
	if err != nil {
		utils.WriteError(w, err, pc.ShowDetails)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// Verify settles a payment from the gateway's record of it
func (pc *PaymentController) Verify(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		utils.WriteError(w, apperr.Validation("Reference is required"), pc.ShowDetails)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()
	out, err := pc.Flow.Verify(ctx, reference)
	if err != nil {
		utils.WriteError(w, err, pc.ShowDetails)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// Webhook receives signed gateway notifications
func (pc *PaymentController) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, apperr.Validation("Invalid webhook payload"), pc.ShowDetails)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := pc.Flow.HandleWebhook(ctx, body, r.Header.Get(gateway.SignatureHeader)); err != nil {
		utils.WriteError(w, err, pc.ShowDetails)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messageResponse{Message: "Webhook processed"})
}

// Record stores a payment the signed-in member reports
func (pc *PaymentController) Record(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Auth("Unauthorized"), pc.ShowDetails)
		return
	}
	var input services.RecordInput
	if err := decode(r, &input); err != nil {
		utils.WriteError(w, err, pc.ShowDetails)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	payment, err := pc.Flow.Record(ctx, claims.Email, input)
	if err != nil {
		utils.WriteError(w, err, pc.ShowDetails)
		return
	}
	utils.WriteJSON(w, http.StatusOK, paymentResponse{Payment: payment})
}

// History lists the signed-in member's payments
func (pc *PaymentController) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Auth("Unauthorized"), pc.ShowDetails)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	payments, err := pc.Flow.History(ctx, claims.Email)
	if err != nil {
		utils.WriteError(w, err, pc.ShowDetails)
		return
	}
	utils.WriteJSON(w, http.StatusOK, historyResponse{Payments: payments})
}
