package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/sweeney/grow-monitor/internal/serial"
)

type appendRequest struct {
	path   string
	query  map[string]string
	auth   string
	values [][]any
}

func newSheetsServer(t *testing.T, status int) (*httptest.Server, *[]appendRequest) {
	t.Helper()
	var got []appendRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		got = append(got, appendRequest{
			path: r.URL.Path,
			query: map[string]string{
				"valueInputOption": r.URL.Query().Get("valueInputOption"),
				"insertDataOption": r.URL.Query().Get("insertDataOption"),
			},
			auth:   r.Header.Get("Authorization"),
			values: body.Values,
		})

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"code":400,"message":"Unable to parse range"}}`)
			return
		}
		fmt.Fprintf(w, `{"spreadsheetId":"sheet-id","updates":{"updatedRange":"Sheet1!A2:D2","updatedRows":%d}}`, len(body.Values))
	}))
	t.Cleanup(ts.Close)
	return ts, &got
}

func newTestAppender(t *testing.T, ts *httptest.Server, cfg Config) *Appender {
	t.Helper()
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	client := &http.Client{Transport: &oauth2.Transport{Source: tokens}}

	a, err := New(context.Background(), tokens, cfg,
		option.WithEndpoint(ts.URL+"/"),
		option.WithHTTPClient(client))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestAppendRows(t *testing.T) {
	ts, got := newSheetsServer(t, http.StatusOK)
	a := newTestAppender(t, ts, Config{SpreadsheetID: "sheet-id", Range: "Sheet1!A:D"})

	row := ReadingRow("2025-11-04 12:00:00", 50, 62.5, 100)
	if err := a.Append(context.Background(), [][]any{row}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(*got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*got))
	}
	req := (*got)[0]
	if !strings.Contains(req.path, "/v4/spreadsheets/sheet-id/values/") || !strings.HasSuffix(req.path, ":append") {
		t.Errorf("unexpected path: %s", req.path)
	}
	if req.query["valueInputOption"] != InputRaw {
		t.Errorf("valueInputOption: got %q, want RAW", req.query["valueInputOption"])
	}
	if req.query["insertDataOption"] != "INSERT_ROWS" {
		t.Errorf("insertDataOption: got %q, want INSERT_ROWS", req.query["insertDataOption"])
	}
	if req.auth != "Bearer test-token" {
		t.Errorf("Authorization: got %q", req.auth)
	}
	if len(req.values) != 1 || len(req.values[0]) != 4 {
		t.Fatalf("unexpected values: %v", req.values)
	}
	if req.values[0][0] != "2025-11-04 12:00:00" {
		t.Errorf("timestamp column: got %v", req.values[0][0])
	}
	if req.values[0][2] != 62.5 {
		t.Errorf("moisture_2 column: got %v", req.values[0][2])
	}
}

func TestAppendUserEntered(t *testing.T) {
	ts, got := newSheetsServer(t, http.StatusOK)
	a := newTestAppender(t, ts, Config{SpreadsheetID: "sheet-id", Range: "Sheet5!A:D", InputOption: InputUserEntered})

	if err := a.Append(context.Background(), [][]any{{"ts", "UV", 0.4, "idx"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if (*got)[0].query["valueInputOption"] != InputUserEntered {
		t.Errorf("valueInputOption: got %q", (*got)[0].query["valueInputOption"])
	}
}

func TestAppendEmptyIsNoop(t *testing.T) {
	ts, got := newSheetsServer(t, http.StatusOK)
	a := newTestAppender(t, ts, Config{SpreadsheetID: "sheet-id", Range: "Sheet1!A:D"})

	if err := a.Append(context.Background(), nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(*got) != 0 {
		t.Errorf("expected no requests, got %d", len(*got))
	}
}

func TestAppendAPIError(t *testing.T) {
	ts, _ := newSheetsServer(t, http.StatusBadRequest)
	a := newTestAppender(t, ts, Config{SpreadsheetID: "sheet-id", Range: "Sheet1!A:D"})

	err := a.Append(context.Background(), [][]any{{"ts", 1.0}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewRequiresTarget(t *testing.T) {
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"})
	if _, err := New(context.Background(), tokens, Config{Range: "Sheet1!A:D"}); err == nil {
		t.Error("expected error without spreadsheet id")
	}
	if _, err := New(context.Background(), tokens, Config{SpreadsheetID: "id"}); err == nil {
		t.Error("expected error without range")
	}
}

func TestFrameRows(t *testing.T) {
	frames := map[string]serial.Frame{
		"UV":          {SensorName: "UV", Value: 0.4, Unit: "idx"},
		"AmbientTemp": {SensorName: "AmbientTemp", Value: 21.5, Unit: "C"},
	}

	rows := FrameRows("2025-11-04T12:00:00", frames, []string{"UV", "AmbientTemp", "Humidity"})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "UV" || rows[1][1] != "AmbientTemp" {
		t.Errorf("unexpected order: %v", rows)
	}
	if rows[1][2] != 21.5 || rows[1][3] != "C" {
		t.Errorf("unexpected AmbientTemp row: %v", rows[1])
	}
}

func TestReadingRow(t *testing.T) {
	row := ReadingRow("ts", 1, 2, 3)
	if len(row) != 4 || row[0] != "ts" || row[3] != 3.0 {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestFakeAppender(t *testing.T) {
	f := &FakeAppender{}
	if err := f.Append(context.Background(), [][]any{{"a"}, {"b"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Rows) != 2 || f.Calls != 1 {
		t.Errorf("got %d rows after %d calls", len(f.Rows), f.Calls)
	}

	f.AppendError = errors.New("quota")
	if err := f.Append(context.Background(), [][]any{{"c"}}); err == nil {
		t.Error("expected error")
	}
	if len(f.Rows) != 2 {
		t.Errorf("rows recorded on error: %d", len(f.Rows))
	}
}
