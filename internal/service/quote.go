package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/quotes-api/internal/apperror"
	"github.com/sakif/quotes-api/internal/model"
	"github.com/sakif/quotes-api/internal/repository"
)

// characterAuthors maps URL character codes to canonical author names.
// The enumeration is closed: an unknown code is a client error, not a miss.
var characterAuthors = map[string]string{
	"ada-wong":        "Ada Wong",
	"albert-wesker":   "Albert Wesker",
	"alex-wesker":     "Alex Wesker",
	"barry-burton":    "Barry Burton",
	"chris-redfield":  "Chris Redfield",
	"claire-redfield": "Claire Redfield",
	"ethan-winters":   "Ethan Winters",
	"jill-valentine":  "Jill Valentine",
	"leon-kennedy":    "Leon Kennedy",
	"moira-burton":    "Moira Burton",
	"nemesis":         "Nemesis",
	"sheva-alomar":    "Sheva Alomar",
}

// sourceTitles maps URL source codes to canonical game titles.
var sourceTitles = map[string]string{
	"resident-evil-2":             "Resident Evil 2",
	"resident-evil-2-remake":      "Resident Evil 2 Remake",
	"resident-evil-3-remake":      "Resident Evil 3 Remake",
	"resident-evil-4":             "Resident Evil 4",
	"resident-evil-5":             "Resident Evil 5",
	"resident-evil-6":             "Resident Evil 6",
	"resident-evil-7":             "Resident Evil 7",
	"resident-evil-revelations":   "Resident Evil Revelations",
	"resident-evil-revelations-2": "Resident Evil Revelations 2",
	"resident-evil-village":       "Resident Evil Village",
}

// QuoteService resolves filter codes and picks random quotes.
type QuoteService struct {
	quotes repository.QuoteRepository
	logger *slog.Logger
}

func NewQuoteService(quotes repository.QuoteRepository, logger *slog.Logger) *QuoteService {
	return &QuoteService{quotes: quotes, logger: logger}
}

// Random returns one random quote, optionally filtered by character and/or
// source code. Empty codes mean no filter. An unknown code yields a 400
// validation error echoing the bad code; a valid combination with no
// matching rows returns (nil, nil).
func (s *QuoteService) Random(ctx context.Context, characterCode, sourceCode string) (*model.Quote, error) {
	var filter repository.QuoteFilter

	if characterCode != "" {
		author, ok := characterAuthors[characterCode]
		if !ok {
			return nil, apperror.ValidationFailed("character",
				fmt.Sprintf("character code is invalid: %s", characterCode))
		}
		filter.Author = author
	}

	if sourceCode != "" {
		source, ok := sourceTitles[sourceCode]
		if !ok {
			return nil, apperror.ValidationFailed("source",
				fmt.Sprintf("source code is invalid: %s", sourceCode))
		}
		filter.Source = source
	}

	quote, err := s.quotes.Random(ctx, filter)
	if err != nil {
		s.logger.Error("failed to select quote", slog.String("error", err.Error()))
		return nil, fmt.Errorf("selecting quote: %w", err)
	}
	return quote, nil
}
