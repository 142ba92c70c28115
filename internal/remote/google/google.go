// Package google stores account snapshots in a Google Sheets spreadsheet,
// one row per account: key in column A, snapshot JSON in B, update time in C.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"viaggi/internal/cache"
	"viaggi/internal/core"
	"viaggi/internal/remote"
)

// MaxCellBytes is the largest snapshot a single Sheets cell can hold.
const MaxCellBytes = 50000

var ErrSnapshotTooLarge = errors.New("snapshot exceeds the sheet cell limit")

var _ remote.Store = (*Client)(nil)

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	RowCacheTTL        time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	// rows maps an account key to its 1-based row number
	rows cache.Cache[int]
	now  func() time.Time
}

// New builds a client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet", cfg.SpreadsheetID, "sheet", cfg.SheetName)
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Accounts"
	}
	ttl := cfg.RowCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         sheet,
		rows:          cache.NewLRU[int](128, ttl),
		now:           time.Now,
	}
}

// RowCache exposes the row index so it can be registered for cleanup.
func (c *Client) RowCache() cache.Cleaner {
	if cl, ok := c.rows.(cache.Cleaner); ok {
		return cl
	}
	return nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// findRow returns the row holding key and, when already read, its payload.
// Zero means the key has no row yet.
func (c *Client) findRow(ctx context.Context, key string) (int, string, error) {
	if row, ok := c.rows.Get(key); ok {
		rng := fmt.Sprintf("%s!A%d:B%d", c.sheet, row, row)
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return 0, "", fmt.Errorf("read %s: %w", rng, err)
		}
		if len(resp.Values) == 1 && cell(resp.Values[0], 0) == key {
			return row, cell(resp.Values[0], 1), nil
		}
		// rows moved under us, fall back to a scan
		c.rows.Delete(key)
	}

	rng := fmt.Sprintf("%s!A:B", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, "", fmt.Errorf("read %s: %w", rng, err)
	}
	for i, r := range resp.Values {
		if cell(r, 0) == key {
			c.rows.Set(key, i+1)
			return i + 1, cell(r, 1), nil
		}
	}
	return 0, "", nil
}

func cell(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

// Fetch implements remote.SnapshotReader.
func (c *Client) Fetch(ctx context.Context, key string) (*core.Account, error) {
	row, payload, err := c.findRow(ctx, key)
	if err != nil {
		return nil, err
	}
	if row == 0 {
		return nil, nil
	}
	return remote.DecodeAccount([]byte(payload))
}

// Save implements remote.SnapshotWriter, updating the account row in place
// or appending one for a new account.
func (c *Client) Save(ctx context.Context, key string, a *core.Account) error {
	payload, err := remote.EncodeAccount(a)
	if err != nil {
		return err
	}
	if len(payload) > MaxCellBytes {
		return fmt.Errorf("%d bytes: %w", len(payload), ErrSnapshotTooLarge)
	}
	values := &gsheet.ValueRange{Values: [][]any{{key, string(payload), c.now().UTC().Format(time.RFC3339)}}}

	row, _, err := c.findRow(ctx, key)
	if err != nil {
		return err
	}
	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:C%d", c.sheet, row, row)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, values).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A:C", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, values).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	if resp.Updates != nil {
		if n, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			c.rows.Set(key, n)
		}
	}
	slog.InfoContext(ctx, "Created account row", "sheet", c.sheet)
	return nil
}

// rowFromRange extracts the first row number of an A1 range such as
// "Accounts!A7:C7".
func rowFromRange(a1 string) (int, bool) {
	if i := strings.LastIndexByte(a1, '!'); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.IndexByte(a1, ':'); i >= 0 {
		a1 = a1[:i]
	}
	digits := strings.TrimLeft(a1, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
