// Package gateway talks to the payment provider's transaction API.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"alumni-portal/apperr"

	"github.com/go-resty/resty/v2"
)

// SignatureHeader carries the provider's HMAC of a webhook body
const SignatureHeader = "X-Paystack-Signature"

// InitializeRequest describes a checkout session to open
type InitializeRequest struct {
	Reference   string
	Email       string
	Name        string
	Amount      int64 // smallest currency unit
	Currency    string
	Narration   string
	CallbackURL string
}

// InitializeResult is what the caller needs to redirect the payer
type InitializeResult struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"authorization_url"`
	AccessCode  string `json:"access_code"`
}

// Transaction is the provider's view of a payment
type Transaction struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at,omitempty"`
}

// TransactionID returns the provider id as a string, or "" when unset
func (t *Transaction) TransactionID() string {
	if t.ID == 0 {
		return ""
	}
	return strconv.FormatInt(t.ID, 10)
}

// VerifyResult pairs the decoded transaction with the raw provider payload
type VerifyResult struct {
	Transaction Transaction
	Raw         json.RawMessage
}

type initializePayload struct {
	Email       string          `json:"email"`
	Amount      string          `json:"amount"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Metadata    initializeExtra `json:"metadata"`
}

type initializeExtra struct {
	Name          string `json:"name"`
	Narration     string `json:"narration"`
	IntegrityHash string `json:"integrity_hash"`
}

type initializeResponse struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	Data    InitializeResult `json:"data"`
}

type verifyResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    Transaction `json:"data"`
}

type apiError struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// Client is a provider API client. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	secret string
}

// NewClient builds a client against baseURL authenticated with secretKey
func NewClient(baseURL, secretKey string) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	return &Client{http: rc, secret: secretKey}
}

// IntegrityHash signs the fields that identify a checkout session
func IntegrityHash(secret, reference string, amount int64, currency, email string) string {
	payload := strings.Join([]string{reference, strconv.FormatInt(amount, 10), currency, email}, "|")
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign computes the webhook signature the provider sends for body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether signature matches body
func (c *Client) ValidateSignature(body []byte, signature string) bool {
	expected := Sign(c.secret, body)
	return hmac.Equal([]byte(strings.ToLower(strings.TrimSpace(signature))), []byte(expected))
}

// Initialize opens a checkout session for req
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	payload := initializePayload{
		Email:       req.Email,
		Amount:      strconv.FormatInt(req.Amount, 10),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata: initializeExtra{
			Name:          req.Name,
			Narration:     req.Narration,
			IntegrityHash: IntegrityHash(c.secret, req.Reference, req.Amount, req.Currency, req.Email),
		},
	}

	var successResp initializeResponse
	var errorResp apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&successResp).
		SetError(&errorResp).
		Post("/transaction/initialize")
	if err != nil {
		log.Printf("ERROR: gateway initialize request failed for reference '%s': %v", req.Reference, err)
		return nil, apperr.Gateway("Could not reach payment provider", err)
	}

	if resp.IsError() {
		log.Printf("ERROR: gateway initialize for reference '%s' returned %s: %s", req.Reference, resp.Status(), errorResp.Message)
		return nil, rejected(resp.StatusCode(), errorResp.Message)
	}

	if !successResp.Status || successResp.Data.CheckoutURL == "" {
		log.Printf("WARN: gateway declined initialize for reference '%s': %s", req.Reference, successResp.Message)
		return nil, apperr.GatewayRejected("Payment initialization failed", fmt.Errorf("provider: %s", successResp.Message))
	}

	result := successResp.Data
	if result.Reference == "" {
		result.Reference = req.Reference
	}
	return &result, nil
}

// Verify fetches the provider's status for reference
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var successResp verifyResponse
	var errorResp apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&successResp).
		SetError(&errorResp).
		Get("/transaction/verify/" + url.PathEscape(reference))
	if err != nil {
		log.Printf("ERROR: gateway verify request failed for reference '%s': %v", reference, err)
		return nil, apperr.Gateway("Could not reach payment provider", err)
	}

	if resp.IsError() {
		log.Printf("ERROR: gateway verify for reference '%s' returned %s: %s", reference, resp.Status(), errorResp.Message)
		return nil, rejected(resp.StatusCode(), errorResp.Message)
	}

	if !successResp.Status {
		log.Printf("WARN: gateway verify for reference '%s' was not successful: %s", reference, successResp.Message)
		return nil, apperr.GatewayRejected("Payment verification failed", fmt.Errorf("provider: %s", successResp.Message))
	}

	log.Printf("INFO: gateway verify for reference '%s' returned status '%s'", reference, successResp.Data.Status)
	return &VerifyResult{Transaction: successResp.Data, Raw: json.RawMessage(resp.Body())}, nil
}

// rejected turns a non-2xx provider answer into a gateway error; 4xx means
// the provider refused the request, anything else is an upstream failure.
func rejected(code int, message string) error {
	cause := fmt.Errorf("provider returned %d: %s", code, message)
	if code >= 400 && code < 500 {
		return apperr.GatewayRejected("Payment provider rejected the request", cause)
	}
	return apperr.Gateway("Payment provider error", cause)
}
