package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"alumni-portal/apperr"
	"alumni-portal/models"
	"alumni-portal/utils"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	stateCookieName    = "oauth-state"
	callbackCookieName = "oauth-callback"
	googleUserInfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Identity is what an OAuth provider tells us about the person signing in
type Identity struct {
	Provider      string
	ProviderID    string
	Email         string
	Name          string
	EmailVerified bool
}

// OAuthProvider runs the authorization code flow against one provider
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// GoogleProvider signs members in with their Google account
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider builds the provider; redirectURL is the callback route
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades code for a token and fetches the account's profile
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.Auth("OAuth code exchange failed")
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	resp, err := resty.NewWithClient(p.config.Client(ctx, token)).R().
		SetContext(ctx).
		SetResult(&info).
		Get(p.userInfoURL)
	if err != nil {
		return nil, apperr.Gateway("Failed to fetch OAuth profile", err)
	}
	if resp.IsError() {
		return nil, apperr.Gateway("Failed to fetch OAuth profile", fmt.Errorf("userinfo returned %s", resp.Status()))
	}

	return &Identity{
		Provider:      p.Name(),
		ProviderID:    info.Sub,
		Email:         info.Email,
		Name:          info.Name,
		EmailVerified: info.EmailVerified,
	}, nil
}

// OAuthController handles provider sign-in
type OAuthController struct {
	Provider    OAuthProvider
	Users       UserRepository
	Sessions    SessionIssuer
	Secure      bool
	ShowDetails bool
}

// NewOAuthController creates a new OAuthController
func NewOAuthController(provider OAuthProvider, users UserRepository, sessions SessionIssuer, secure, showDetails bool) *OAuthController {
	return &OAuthController{Provider: provider, Users: users, Sessions: sessions, Secure: secure, ShowDetails: showDetails}
}

func (oc *OAuthController) setTempCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   oc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Start redirects to the provider's consent page
func (oc *OAuthController) Start(w http.ResponseWriter, r *http.Request) {
	state, err := utils.RandomToken(16)
	if err != nil {
		utils.WriteError(w, apperr.Internal("Error generating OAuth state", err), oc.ShowDetails)
		return
	}
	maxAge := int((10 * time.Minute).Seconds())
	oc.setTempCookie(w, stateCookieName, state, maxAge)
	oc.setTempCookie(w, callbackCookieName, safeCallback(r.URL.Query().Get("callbackUrl")), maxAge)
	http.Redirect(w, r, oc.Provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the flow, linking or creating the account by email
func (oc *OAuthController) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		utils.WriteError(w, apperr.Auth("Invalid OAuth state"), oc.ShowDetails)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteError(w, apperr.Validation("Missing authorization code"), oc.ShowDetails)
		return
	}
	callback := "/"
	if c, err := r.Cookie(callbackCookieName); err == nil {
		callback = safeCallback(c.Value)
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	identity, err := oc.Provider.Exchange(ctx, code)
	if err != nil {
		utils.WriteError(w, err, oc.ShowDetails)
		return
	}
	user, err := oc.resolveUser(ctx, identity)
	if err != nil {
		utils.WriteError(w, err, oc.ShowDetails)
		return
	}

	token, expires, err := oc.Sessions.GenerateJWT(user)
	if err != nil {
		utils.WriteError(w, apperr.Internal("Error generating token", err), oc.ShowDetails)
		return
	}
	oc.Sessions.SetCookie(w, token, expires)
	oc.setTempCookie(w, stateCookieName, "", -1)
	oc.setTempCookie(w, callbackCookieName, "", -1)
	http.Redirect(w, r, callback, http.StatusFound)
}

// resolveUser keeps one account per email whatever the sign-in method
func (oc *OAuthController) resolveUser(ctx context.Context, id *Identity) (*models.User, error) {
	email := utils.NormalizeEmail(id.Email)
	if email == "" || !id.EmailVerified {
		return nil, apperr.Auth("OAuth account has no verified email")
	}

	user, err := oc.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Provider == "" {
			if err := oc.Users.LinkProvider(ctx, email, id.Provider, id.ProviderID); err != nil {
				return nil, err
			}
			user.Provider, user.ProviderID = id.Provider, id.ProviderID
			log.Printf("INFO: linked %s sign-in to %s", id.Provider, email)
		}
		return user, nil
	case !apperr.Is(err, apperr.KindNotFound):
		return nil, err
	}

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = &models.User{Name: name, Email: email, Provider: id.Provider, ProviderID: id.ProviderID}
	if err := oc.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("INFO: registered account %s through %s", email, id.Provider)
	return user, nil
}

// safeCallback only allows redirects back into this site
func safeCallback(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
