package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"atlas/internal/core"
	ports "atlas/internal/sheets"
	"atlas/internal/storage"
)

// Ensure interface conformance
var _ ports.Mirror = (*Client)(nil)

var errNotInitialized = errors.New("sheets service not initialized")

// Config selects the spreadsheet and tabs the mirror writes to.
type Config struct {
	SpreadsheetID   string
	OrdersSheet     string
	CapitalSheet    string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ordersSheet   string
	capitalSheet  string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// New creates a Sheets mirror authenticated with a service account.
// Inline JSON credentials take precedence over a credentials file.
func New(ctx context.Context, cfg Config) (*Client, error) {
	var creds goption.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", "json_length", len(cfg.CredentialsJSON))
		creds = goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		creds = goption.WithCredentialsFile(cfg.CredentialsFile)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	return NewWithOptions(ctx, cfg, creds, goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a mirror with explicit client options, e.g. a test endpoint.
func NewWithOptions(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(cfg.OrdersSheet) == "" || strings.TrimSpace(cfg.CapitalSheet) == "" {
		return nil, errors.New("sheet names cannot be empty")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully",
		"orders_sheet", cfg.OrdersSheet,
		"capital_sheet", cfg.CapitalSheet)
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		ordersSheet:   cfg.OrdersSheet,
		capitalSheet:  cfg.CapitalSheet,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// EnsureHeaders writes the header row of each tab when its first cell is empty.
func (c *Client) EnsureHeaders(ctx context.Context) error {
	if c.svc == nil {
		return errNotInitialized
	}
	for sheet, header := range map[string][]any{
		c.ordersSheet:  ports.OrderHeader,
		c.capitalSheet: ports.CapitalHeader,
	} {
		rng := fmt.Sprintf("%s!A1", sheet)
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("read %s: %w", rng, err)
		}
		if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
			continue
		}
		if err := c.writeRow(ctx, sheet, 1, header); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Wrote sheet header", "sheet", sheet)
	}
	return nil
}

func (c *Client) UpsertOrder(ctx context.Context, o core.Order) error {
	return c.upsert(ctx, c.ordersSheet, o.ID, ports.OrderRow(o))
}

func (c *Client) UpsertCapital(ctx context.Context, e core.CapitalEntry) error {
	return c.upsert(ctx, c.capitalSheet, e.ID, ports.CapitalRow(e))
}

func (c *Client) Remove(ctx context.Context, kind storage.Kind, id string) error {
	if c.svc == nil {
		return errNotInitialized
	}
	sheet, err := c.sheetFor(kind)
	if err != nil {
		return err
	}
	row, err := c.findRow(ctx, sheet, id)
	if err != nil {
		return err
	}
	if row == 0 {
		slog.DebugContext(ctx, "Row already absent from sheet", "sheet", sheet, "id", id)
		return nil
	}
	sheetID, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", row, sheet, err)
	}
	return nil
}

func (c *Client) upsert(ctx context.Context, sheet, id string, values []any) error {
	if c.svc == nil {
		return errNotInitialized
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("cannot mirror a record without an ID")
	}
	row, err := c.findRow(ctx, sheet, id)
	if err != nil {
		return err
	}
	if row > 0 {
		return c.writeRow(ctx, sheet, row, values)
	}

	rng := fmt.Sprintf("%s!A:A", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	return nil
}

func (c *Client) writeRow(ctx context.Context, sheet string, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d", sheet, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// findRow returns the 1-based row holding id in column A, or 0 if absent.
func (c *Client) findRow(ctx context.Context, sheet, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return indexOfID(resp.Values, id), nil
}

func indexOfID(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.sheetIDs[title]; ok {
		return id, nil
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", title)
	}
	return id, nil
}

func (c *Client) sheetFor(kind storage.Kind) (string, error) {
	switch kind {
	case storage.KindOrder:
		return c.ordersSheet, nil
	case storage.KindCapital:
		return c.capitalSheet, nil
	default:
		return "", fmt.Errorf("no sheet for kind %q", kind)
	}
}
