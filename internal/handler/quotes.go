package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/quotes-api/internal/service"
)

// QuoteHandler serves the quote endpoint. Authentication and rate limiting
// are middleware concerns; by the time a request lands here it is already
// authenticated and inside its rate window.
type QuoteHandler struct {
	quotes *service.QuoteService
	logger *slog.Logger
}

func NewQuoteHandler(quotes *service.QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, logger: logger}
}

// HandleRandom returns one random quote.
//
// HTTP: GET /quotes?character=<code>&source=<code>
//
// Both query parameters are optional; unknown codes are 400. A valid filter
// combination with no matching quotes is still a success: 200 with an empty
// JSON object.
func (h *QuoteHandler) HandleRandom(w http.ResponseWriter, r *http.Request) {
	characterCode := r.URL.Query().Get("character")
	sourceCode := r.URL.Query().Get("source")

	quote, err := h.quotes.Random(r.Context(), characterCode, sourceCode)
	if err != nil {
		writeError(w, err)
		return
	}

	if quote == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
