package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"atlas/internal/core"
	"atlas/internal/storage"
)

// fakeSheets serves the subset of the Sheets v4 REST API the mirror uses.
type fakeSheets struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	ids    map[string]int64
	writes int
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{
		tabs: map[string][][]any{"Orders": nil, "Capital": nil},
		ids:  map[string]int64{"Orders": 0, "Capital": 7},
	}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1")
	switch {
	case path == "" && r.Method == http.MethodGet:
		var sheets []*gsheet.Sheet
		for title, id := range f.ids {
			sheets = append(sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title, SheetId: id}})
		}
		writeJSON(w, &gsheet.Spreadsheet{Sheets: sheets})

	case path == ":batchUpdate" && r.Method == http.MethodPost:
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			d := rq.DeleteDimension.Range
			title := f.titleFor(d.SheetId)
			rows := f.tabs[title]
			f.tabs[title] = append(rows[:d.StartIndex], rows[d.EndIndex:]...)
		}
		f.writes++
		writeJSON(w, &gsheet.BatchUpdateSpreadsheetResponse{})

	case strings.HasPrefix(path, "/values/"):
		rng := strings.TrimPrefix(path, "/values/")
		if strings.HasSuffix(rng, ":append") && r.Method == http.MethodPost {
			sheet, _, _ := strings.Cut(rng, "!")
			f.tabs[sheet] = append(f.tabs[sheet], decodeRow(r))
			f.writes++
			writeJSON(w, &gsheet.AppendValuesResponse{})
			return
		}
		sheet, cell, _ := strings.Cut(rng, "!")
		switch r.Method {
		case http.MethodGet:
			rows := f.tabs[sheet]
			if cell == "A1" && len(rows) > 0 {
				rows = rows[:1]
			}
			var col [][]any
			for _, row := range rows {
				if len(row) > 0 {
					col = append(col, []any{row[0]})
				} else {
					col = append(col, []any{})
				}
			}
			writeJSON(w, &gsheet.ValueRange{Values: col})
		case http.MethodPut:
			n, _ := strconv.Atoi(strings.TrimPrefix(cell, "A"))
			for len(f.tabs[sheet]) < n {
				f.tabs[sheet] = append(f.tabs[sheet], nil)
			}
			f.tabs[sheet][n-1] = decodeRow(r)
			f.writes++
			writeJSON(w, &gsheet.UpdateValuesResponse{})
		}

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) titleFor(id int64) string {
	for title, sid := range f.ids {
		if sid == id {
			return title
		}
	}
	return ""
}

func (f *fakeSheets) rows(sheet string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]any(nil), f.tabs[sheet]...)
}

func (f *fakeSheets) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func decodeRow(r *http.Request) []any {
	var vr gsheet.ValueRange
	_ = json.NewDecoder(r.Body).Decode(&vr)
	if len(vr.Values) == 0 {
		return nil
	}
	return vr.Values[0]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := newFakeSheets()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewWithOptions(context.Background(),
		Config{SpreadsheetID: "sheet-1", OrdersSheet: "Orders", CapitalSheet: "Capital"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	return c, fake
}

func testOrder(id string, price int64) core.Order {
	return core.Order{
		ID:         id,
		ExternalID: "ETSY-" + id,
		OrderDate:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:     core.StatusPending,
		Price:      core.Money{Cents: price},
	}
}

func TestNew_MissingSettings(t *testing.T) {
	ctx := context.Background()

	if _, err := New(ctx, Config{SpreadsheetID: "x", OrdersSheet: "O", CapitalSheet: "C"}); err == nil ||
		!strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected missing credentials error, got %v", err)
	}
	if _, err := NewWithOptions(ctx, Config{OrdersSheet: "O", CapitalSheet: "C"}); err == nil ||
		err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("expected missing spreadsheet error, got %v", err)
	}
	if _, err := NewWithOptions(ctx, Config{SpreadsheetID: "x", OrdersSheet: "O"}); err == nil {
		t.Error("expected error for empty capital sheet name")
	}
}

func TestClient_EnsureHeaders(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	if err := c.EnsureHeaders(ctx); err != nil {
		t.Fatalf("EnsureHeaders: %v", err)
	}
	if got := fake.rows("Orders"); len(got) != 1 || got[0][0] != "ID" {
		t.Fatalf("expected header row in Orders, got %v", got)
	}

	writes := fake.writeCount()
	if err := c.EnsureHeaders(ctx); err != nil {
		t.Fatalf("EnsureHeaders again: %v", err)
	}
	if fake.writeCount() != writes {
		t.Error("headers should not be rewritten when present")
	}
}

func TestClient_UpsertOrder(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()
	if err := c.EnsureHeaders(ctx); err != nil {
		t.Fatalf("EnsureHeaders: %v", err)
	}

	if err := c.UpsertOrder(ctx, testOrder("a", 1000)); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := c.UpsertOrder(ctx, testOrder("b", 2000)); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if err := c.UpsertOrder(ctx, testOrder("a", 1500)); err != nil {
		t.Fatalf("update a: %v", err)
	}

	rows := fake.rows("Orders")
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "a" || rows[1][4] != "15.00" {
		t.Errorf("expected row a updated in place, got %v", rows[1])
	}
	if rows[2][0] != "b" {
		t.Errorf("expected row b second, got %v", rows[2])
	}
}

func TestClient_UpsertRequiresID(t *testing.T) {
	c, _ := newTestClient(t)
	if err := c.UpsertOrder(context.Background(), testOrder("", 100)); err == nil {
		t.Error("expected error for record without ID")
	}
}

func TestClient_Remove(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	entry := core.CapitalEntry{ID: "cap-1", Type: core.Deposit, Source: core.SourceLoan, Amount: core.Money{Cents: 500}}
	if err := c.UpsertCapital(ctx, entry); err != nil {
		t.Fatalf("UpsertCapital: %v", err)
	}
	if err := c.Remove(ctx, storage.KindCapital, "cap-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if rows := fake.rows("Capital"); len(rows) != 0 {
		t.Errorf("expected capital sheet empty, got %v", rows)
	}

	if err := c.Remove(ctx, storage.KindCapital, "cap-1"); err != nil {
		t.Errorf("removing an absent row should succeed, got %v", err)
	}
	if err := c.Remove(ctx, storage.Kind("user"), "u"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestIndexOfID(t *testing.T) {
	values := [][]any{{"ID"}, {}, {"abc "}, {"def"}}

	tests := []struct {
		id   string
		want int
	}{
		{"abc", 3},
		{"def", 4},
		{"zzz", 0},
	}
	for _, tt := range tests {
		if got := indexOfID(values, tt.id); got != tt.want {
			t.Errorf("indexOfID(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
