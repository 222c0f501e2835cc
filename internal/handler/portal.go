package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/quotes-api/internal/apperror"
	"github.com/sakif/quotes-api/internal/auth"
	"github.com/sakif/quotes-api/internal/service"
)

// PortalHandler serves the self-service account portal. Every route sits
// behind RequireBasicAuth, and every operation applies to the identity the
// middleware put in the context — a body can never name a different account.
type PortalHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

func NewPortalHandler(accounts *service.AccountService, logger *slog.Logger) *PortalHandler {
	return &PortalHandler{accounts: accounts, logger: logger}
}

// identity pulls the authenticated identifier out of the context. A missing
// identity on a portal route means the route is wired without the auth
// middleware, which is a server bug, not a client error.
func (h *PortalHandler) identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	identifier, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.logger.Error("portal route reached without authentication",
			slog.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return "", false
	}
	return identifier, true
}

// HandleSignIn confirms the credentials worked. The Basic auth middleware
// did all the checking; reaching the handler IS the success.
//
// HTTP: POST /portal/sign-in
func (h *PortalHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User is authentic."})
}

// HandleGetCurrentEmail returns the stored contact email.
//
// HTTP: POST /portal/get-current-email
func (h *PortalHandler) HandleGetCurrentEmail(w http.ResponseWriter, r *http.Request) {
	identifier, ok := h.identity(w, r)
	if !ok {
		return
	}

	email, err := h.accounts.CurrentEmail(r.Context(), identifier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}

// HandleChangeEmail updates the contact email.
//
// HTTP: POST /portal/change-email {"newEmail": ...}
func (h *PortalHandler) HandleChangeEmail(w http.ResponseWriter, r *http.Request) {
	identifier, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		NewEmail string `json:"newEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body is not valid JSON"))
		return
	}

	if err := h.accounts.ChangeEmail(r.Context(), identifier, req.NewEmail); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Email updated successfully."})
}

// HandleChangePassword replaces the password (or, for an API-key account,
// the secret the key hash is derived from — the store doesn't distinguish).
//
// HTTP: POST /portal/change-password {"newPassword": ...}
func (h *PortalHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	identifier, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body is not valid JSON"))
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), identifier, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully."})
}

// HandleDeleteAccount removes the account. No confirmation step; Basic auth
// on the request is the confirmation.
//
// HTTP: POST /portal/delete-account
func (h *PortalHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	identifier, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), identifier); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted successfully."})
}
