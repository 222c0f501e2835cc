package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/quotes-api/internal/apperror"
	"github.com/sakif/quotes-api/internal/service"
)

// RegisterHandler serves POST /register for both account kinds. The body
// shape selects the flow: a username/password body creates a portal account,
// a name/reason/email body creates an API-key account.
type RegisterHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

func NewRegisterHandler(accounts *service.AccountService, logger *slog.Logger) *RegisterHandler {
	return &RegisterHandler{accounts: accounts, logger: logger}
}

// registerRequest is the union of both registration body shapes. Decoding is
// lenient; the shape check below decides which flow the body belongs to.
type registerRequest struct {
	// username/password flow
	Username string `json:"username"`
	Password string `json:"password"`

	// API-key flow; Reason is the honeypot field.
	Name   string `json:"name"`
	Reason string `json:"reason"`

	// shared
	Email string `json:"email"`
}

// HandleRegister dispatches on body shape.
//
// HTTP: POST /register
//
// Responses:
//   - username/password flow: bare 201 on success
//   - API-key flow: 201 {"identityKey": ..., "secretKey": ...} on success;
//     a filled honeypot gets a fake 200 "Sign up successful" and the store
//     is never touched
//   - 400 on malformed bodies, 409 on duplicates
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body is not valid JSON"))
		return
	}

	// Presence of either password-flow field marks the body password-shaped.
	if req.Username != "" || req.Password != "" {
		h.registerWithPassword(w, r, req)
		return
	}
	h.registerWithKeys(w, r, req)
}

func (h *RegisterHandler) registerWithPassword(w http.ResponseWriter, r *http.Request, req registerRequest) {
	if err := h.accounts.RegisterWithPassword(r.Context(), req.Username, req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *RegisterHandler) registerWithKeys(w http.ResponseWriter, r *http.Request, req registerRequest) {
	// Honeypot first: bots fill the hidden reason field. They get a success
	// response indistinguishable from the real one and no account.
	if h.accounts.IsSpam(req.Reason) {
		h.logger.Info("honeypot triggered", slog.String("remoteAddr", r.RemoteAddr))
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Sign up successful"})
		return
	}

	creds, err := h.accounts.RegisterWithKeys(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	// The only response that ever carries the plaintext secret key.
	writeJSON(w, http.StatusCreated, creds)
}
