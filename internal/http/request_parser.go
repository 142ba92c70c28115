package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"viaggi/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		if errors.Is(err, core.ErrInvalidAmount) {
			return &core.ValidationError{Field: "amount", Err: err}
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// parseDay accepts YYYY-MM-DD in loc or a full RFC 3339 timestamp. An empty
// value yields fallback.
func parseDay(v string, loc *time.Location, fallback time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, v, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: "date", Err: core.ErrInvalidDate}
	}
	return t, nil
}

// parseAmountParam parses a user-typed amount such as "12,50".
func parseAmountParam(field, v string) (float64, error) {
	amount, err := core.ParseAmount(v)
	if err != nil {
		return 0, &core.ValidationError{Field: field, Err: err}
	}
	return amount, nil
}

// amountField accepts a JSON number or a user-typed string such as "12,50".
type amountField float64

func (a *amountField) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*a = amountField(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("amount must be a number or a string")
	}
	v, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	*a = amountField(v)
	return nil
}
