package http

import (
	"encoding/json"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/auth"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"net/http"
)

// maxCredentialsBody bounds register and login bodies
const maxCredentialsBody = 64 << 10

type AuthHandler struct {
	authService auth.Service
	responder   *Responder
	logger      hclog.Logger
}

func NewAuthHandler(as auth.Service, responder *Responder, log hclog.Logger) *AuthHandler {
	return &AuthHandler{authService: as, responder: responder, logger: log}
}

// Register handles POST /api/auth/register
//
// swagger:route POST /api/auth/register auth register
//
// Registers an administrator account.
//
// Responses:
//
//	200: messageResponse
//	400: validationErrorResponse
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.authService.Register(r.Context(), creds); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.Message(w, http.StatusOK, "Admin created successfully")
}

// Login handles POST /api/auth/login
//
// swagger:route POST /api/auth/login auth login
//
// Exchanges credentials for a session token valid for 24 hours.
//
// Responses:
//
//	200: tokenResponse
//	400: errorResponse
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	token, err := h.authService.Login(r.Context(), creds)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, TokenResponse{Token: token})
}

func readCredentials(w http.ResponseWriter, r *http.Request) (domain.Credentials, error) {
	var creds domain.Credentials
	r.Body = http.MaxBytesReader(w, r.Body, maxCredentialsBody)
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return creds, wrapBodyError(err)
	}
	return creds, nil
}
