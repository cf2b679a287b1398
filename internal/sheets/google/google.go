package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"planner/internal/core"
	ports "planner/internal/sheets"
)

const (
	// DefaultSpreadsheetTitle names the spreadsheet looked up or created in Drive.
	DefaultSpreadsheetTitle = "IncomeExpenseAppData"
	DefaultSheetName        = "Transactions"

	spreadsheetMime = "application/vnd.google-apps.spreadsheet"
)

// Config selects the spreadsheet and credentials for a Client.
type Config struct {
	// SpreadsheetID may be empty; EnsureSpreadsheet then finds or creates one.
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON []byte
	// RequestsPerSecond throttles API calls to stay inside the Sheets quota.
	RequestsPerSecond float64
}

type Client struct {
	svc           *gsheet.Service
	drive         *gdrive.Service
	limiter       *rate.Limiter
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.RemoteLedger = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Optional: GOOGLE_SPREADSHEET_ID (found or created when empty),
// GOOGLE_SHEET_NAME (default "Transactions").
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	creds, err := LoadCredentials(
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, Config{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		SheetName:       strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME")),
		CredentialsJSON: creds,
	})
}

// LoadCredentials returns service account JSON from an inline value, a
// file path, or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func LoadCredentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	if inlineJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if len(cfg.CredentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}

	creds, err := googleoauth.CredentialsFromJSON(ctx, cfg.CredentialsJSON, gsheet.SpreadsheetsScope, gdrive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	// The authorized client rides on a pooled transport.
	baseCtx := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	httpClient := oauth2.NewClient(baseCtx, creds.TokenSource)

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	drv, err := gdrive.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets client created",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)

	return &Client{
		svc:           svc,
		drive:         drv,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 5),
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// newHTTPClientWithPooling creates an HTTP client optimized for Google APIs
// with connection pooling, proper timeouts, and keep-alive settings
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// SpreadsheetID returns the spreadsheet in use, empty until resolved.
func (c *Client) SpreadsheetID() string {
	return c.spreadsheetID
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// EnsureSpreadsheet resolves the spreadsheet id: the configured one, else
// the first Drive spreadsheet named title, else a newly created one with
// the header row in place.
func (c *Client) EnsureSpreadsheet(ctx context.Context, title string) (string, error) {
	if c.spreadsheetID != "" {
		return c.spreadsheetID, nil
	}
	if c.svc == nil || c.drive == nil {
		return "", errors.New("sheets service not initialized")
	}
	if title == "" {
		title = DefaultSpreadsheetTitle
	}

	if err := c.wait(ctx); err != nil {
		return "", err
	}
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", strings.ReplaceAll(title, "'", `\'`), spreadsheetMime)
	list, err := c.drive.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search drive for %q: %w", title, err)
	}
	if len(list.Files) > 0 {
		c.spreadsheetID = list.Files[0].Id
		slog.InfoContext(ctx, "Using existing spreadsheet", "id", c.spreadsheetID, "title", title)
		return c.spreadsheetID, nil
	}

	header := make([]*gsheet.CellData, len(Header))
	for i, h := range Header {
		s := fmt.Sprint(h)
		header[i] = &gsheet.CellData{UserEnteredValue: &gsheet.ExtendedValue{StringValue: &s}}
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	created, err := c.svc.Spreadsheets.Create(&gsheet.Spreadsheet{
		Properties: &gsheet.SpreadsheetProperties{Title: title},
		Sheets: []*gsheet.Sheet{{
			Properties: &gsheet.SheetProperties{Title: c.sheetName},
			Data:       []*gsheet.GridData{{RowData: []*gsheet.RowData{{Values: header}}}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet %q: %w", title, err)
	}
	c.spreadsheetID = created.SpreadsheetId
	slog.InfoContext(ctx, "Created spreadsheet", "id", c.spreadsheetID, "title", title)
	return c.spreadsheetID, nil
}

func (c *Client) ready(ctx context.Context) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	return c.EnsureSpreadsheet(ctx, DefaultSpreadsheetTitle)
}

func (c *Client) readRows(ctx context.Context, id string) ([][]any, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A2:F", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// Push appends entries whose id is not in column A yet.
func (c *Client) Push(ctx context.Context, entries []core.Entry) (int, error) {
	id, err := c.ready(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	idRange := fmt.Sprintf("%s!A2:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(id, idRange).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", idRange, err)
	}
	existing := idsOf(resp.Values)

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if _, ok := existing[e.ID]; ok {
			continue
		}
		existing[e.ID] = -1
		rows = append(rows, entryToRow(e))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	_, err = c.svc.Spreadsheets.Values.Append(id, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append to %s: %w", rng, err)
	}
	return len(rows), nil
}

// Pull reads every parseable row. Bad rows are logged and skipped.
func (c *Client) Pull(ctx context.Context) ([]core.Entry, error) {
	id, err := c.ready(ctx)
	if err != nil {
		return nil, err
	}
	values, err := c.readRows(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]core.Entry, 0, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		e, err := rowToEntry(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unparseable sheet row", "row", i+2, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Replace clears the data rows and writes entries in their place.
func (c *Client) Replace(ctx context.Context, entries []core.Entry) error {
	id, err := c.ready(ctx)
	if err != nil {
		return err
	}

	if err := c.wait(ctx); err != nil {
		return err
	}
	dataRange := fmt.Sprintf("%s!A2:F", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(id, dataRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", dataRange, err)
	}
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = entryToRow(e)
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	start := fmt.Sprintf("%s!A2", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Update(id, start, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", start, err)
	}
	return nil
}

// Delete removes the row holding id. Unknown ids are ignored.
func (c *Client) Delete(ctx context.Context, entryID string) error {
	id, err := c.ready(ctx)
	if err != nil {
		return err
	}

	values, err := c.readRows(ctx, id)
	if err != nil {
		return err
	}
	idx, ok := idsOf(values)[entryID]
	if !ok {
		slog.DebugContext(ctx, "Entry not present in sheet, nothing to delete", "entry_id", entryID)
		return nil
	}

	sheetID, err := c.sheetID(ctx, id)
	if err != nil {
		return err
	}

	// Data starts on the second row; dimension indexes are zero based.
	row := int64(idx + 1)
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(id, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: row,
					EndIndex:   row + 1,
					// Sheet ids are often 0, which would otherwise be dropped.
					ForceSendFields: []string{"SheetId"},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete row for entry %s: %w", entryID, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, spreadsheetID string) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	ss, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}
