package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"viaggi/internal/core"
	"viaggi/internal/currency"
	applog "viaggi/internal/log"
)

type ratesResponse struct {
	Base        string         `json:"base"`
	Rates       currency.Table `json:"rates"`
	LastUpdated *time.Time     `json:"lastUpdated"`
	Updating    bool           `json:"updating"`
	Warning     string         `json:"warning,omitempty"`
}

func (s *Server) handleRates(w http.ResponseWriter, _ *http.Request) {
	table, at := s.rates.Rates()
	writeJSON(w, http.StatusOK, ratesResponse{
		Base:        currency.Pivot,
		Rates:       table,
		LastUpdated: at,
		Updating:    s.rates.Updating(),
	})
}

// handleRefreshRates fetches a new table. A table that is in effect but
// could not be cached locally is still a success, reported as a warning.
func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	table, at, err := s.rates.Refresh(r.Context())
	if table == nil {
		if err == nil {
			err = errors.New("rate fetcher returned no table")
		}
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate refresh failed",
			applog.NewFields().WithOperation(applog.OpRefresh).WithError(err).ToSlice()...)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Type: applog.ErrorTypeNetwork})
		return
	}
	resp := ratesResponse{Base: currency.Pivot, Rates: table, LastUpdated: &at}
	if err != nil {
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type convertResponse struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Result    float64 `json:"result"`
	Formatted string  `json:"formatted"`
}

// handleConvert answers GET /api/convert?amount=12,50&from=JPY&to=EUR.
// Unlike the summaries, a missing rate is an error here. The result is
// rounded to cents.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := parseAmountParam("amount", q.Get("amount"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, err := currencyParam("from", q.Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := currencyParam("to", q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	table, _ := s.rates.Rates()
	v, err := currency.Convert(amount, from, to, table)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{
		Amount:    amount,
		From:      from,
		To:        to,
		Result:    core.RoundAmount(v, 2),
		Formatted: core.FormatAmount(v, to),
	})
}

func currencyParam(field, v string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(v))
	if !core.ValidCurrency(code) {
		return "", &core.ValidationError{Field: field, Err: fmt.Errorf("%q: %w", v, core.ErrInvalidCurrency)}
	}
	return code, nil
}
