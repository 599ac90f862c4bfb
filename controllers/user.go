package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"alumni-portal/apperr"
	"alumni-portal/middleware"
	"alumni-portal/models"
	"alumni-portal/utils"
)

const (
	requestTimeout = 5 * time.Second
	resetTokenTTL  = time.Hour
)

// UserRepository is the account storage the controller needs
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, hash string) error
	LinkProvider(ctx context.Context, email, provider, providerID string) error
}

// ResetTokenRepository stores password reset tokens
type ResetTokenRepository interface {
	Issue(ctx context.Context, t *models.ResetToken) error
	Find(ctx context.Context, token string) (*models.ResetToken, error)
	Consume(ctx context.Context, token string) error
}

// AccountMailer sends account related messages
type AccountMailer interface {
	SendWelcomeEmail(toEmail, name string) error
	SendPasswordResetEmail(toEmail, token string) error
}

// SessionIssuer creates and clears session cookies
type SessionIssuer interface {
	GenerateJWT(user *models.User) (string, time.Time, error)
	SetCookie(w http.ResponseWriter, token string, expires time.Time)
	ClearCookie(w http.ResponseWriter)
}

// UserController handles registration, sign-in and password resets
type UserController struct {
	Users       UserRepository
	Resets      ResetTokenRepository
	Mailer      AccountMailer
	Sessions    SessionIssuer
	ShowDetails bool

	now func() time.Time
}

// NewUserController creates a new UserController
func NewUserController(users UserRepository, resets ResetTokenRepository, mailer AccountMailer, sessions SessionIssuer, showDetails bool) *UserController {
	return &UserController{
		Users:       users,
		Resets:      resets,
		Mailer:      mailer,
		Sessions:    sessions,
		ShowDetails: showDetails,
		now:         time.Now,
	}
}

type userResponse struct {
	User *models.User `json:"user"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid input")
	}
	return nil
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &input); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}

	user := &models.User{
		Name:  strings.TrimSpace(input.Name),
		Email: utils.NormalizeEmail(input.Email),
	}
	if user.Name == "" {
		utils.WriteError(w, apperr.Validation("Name is required"), uc.ShowDetails)
		return
	}
	if !utils.ValidEmail(user.Email) {
		utils.WriteError(w, apperr.Validation("A valid email is required"), uc.ShowDetails)
		return
	}
	if err := utils.ValidatePassword(input.Password); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		utils.WriteError(w, apperr.Internal("Error hashing password", err), uc.ShowDetails)
		return
	}
	user.Password = hash

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := uc.Users.Create(ctx, user); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}
	log.Printf("INFO: registered account %s", user.Email)

	go func(email, name string) {
		if err := uc.Mailer.SendWelcomeEmail(email, name); err != nil {
			log.Printf("ERROR: failed to send welcome email to %s: %v", email, err)
		}
	}(user.Email, user.Name)

	utils.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &creds); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}
	email := utils.NormalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		utils.WriteError(w, apperr.Validation("Email and password are required"), uc.ShowDetails)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	user, err := uc.Users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			err = apperr.Auth("Invalid email or password")
		}
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}
	if !user.HasPassword() || !utils.CheckPassword(user.Password, creds.Password) {
		utils.WriteError(w, apperr.Auth("Invalid email or password"), uc.ShowDetails)
		return
	}

	token, expires, err := uc.Sessions.GenerateJWT(user)
	if err != nil {
		utils.WriteError(w, apperr.Internal("Error generating token", err), uc.ShowDetails)
		return
	}
	uc.Sessions.SetCookie(w, token, expires)
	utils.WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout clears the session cookie
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	uc.Sessions.ClearCookie(w)
	utils.WriteJSON(w, http.StatusOK, messageResponse{Message: "Signed out"})
}

// ForgotPassword issues a reset token and mails the link. The response is
// the same whether or not the account exists.
func (uc *UserController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := decode(r, &input); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}
	email := utils.NormalizeEmail(input.Email)
	if !utils.ValidEmail(email) {
		utils.WriteError(w, apperr.Validation("A valid email is required"), uc.ShowDetails)
		return
	}

	ok := messageResponse{Message: "If an account exists for that email, a reset link has been sent"}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if _, err := uc.Users.FindByEmail(ctx, email); err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			log.Printf("ERROR: password reset lookup for %s: %v", email, err)
		}
		utils.WriteJSON(w, http.StatusOK, ok)
		return
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		utils.WriteError(w, apperr.Internal("Error generating reset token", err), uc.ShowDetails)
		return
	}
	now := uc.now().UTC()
	if err := uc.Resets.Issue(ctx, &models.ResetToken{
		Email:     email,
		Token:     token,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}

	if err := uc.Mailer.SendPasswordResetEmail(email, token); err != nil {
		log.Printf("ERROR: failed to send password reset email to %s: %v", email, err)
	}
	utils.WriteJSON(w, http.StatusOK, ok)
}

// ResetPassword sets a new password for the holder of a live reset token
func (uc *UserController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decode(r, &input); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}
	if strings.TrimSpace(input.Token) == "" {
		utils.WriteError(w, apperr.Validation("Invalid or expired reset token"), uc.ShowDetails)
		return
	}
	if err := utils.ValidatePassword(input.Password); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	reset, err := uc.Resets.Find(ctx, input.Token)
	if err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}
	if reset.Expired(uc.now()) {
		utils.WriteError(w, apperr.Validation("Invalid or expired reset token"), uc.ShowDetails)
		return
	}

	user, err := uc.Users.FindByEmail(ctx, reset.Email)
	if err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		utils.WriteError(w, apperr.Internal("Error hashing password", err), uc.ShowDetails)
		return
	}
	if err := uc.Users.UpdatePassword(ctx, user.Email, hash); err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}
	if err := uc.Resets.Consume(ctx, input.Token); err != nil {
		log.Printf("WARN: reset token for %s was used but not deleted: %v", user.Email, err)
	}
	log.Printf("INFO: password reset for %s", user.Email)

	user.Password = hash
	utils.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Auth("Unauthorized"), uc.ShowDetails)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	user, err := uc.Users.FindByEmail(ctx, claims.Email)
	if err != nil {
		utils.WriteError(w, err, uc.ShowDetails)
		return
	}
	utils.WriteJSON(w, http.StatusOK, userResponse{User: user})
}
