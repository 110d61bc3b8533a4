// Package google implements the ledger port on top of the Google Sheets and
// Drive APIs using service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

// Options configures the Sheets client. SheetName identifies the spreadsheet
// by its human-readable Drive name; SpreadsheetID skips the Drive lookup when
// set. Credentials come inline or from a file.
type Options struct {
	SheetName       string
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	sheets *gsheet.Service
	drive  *gdrive.Service
	name   string

	// resolved lazily on first append so a missing spreadsheet surfaces as
	// a write failure, not a startup failure
	mu            sync.Mutex
	spreadsheetID string
	firstSheet    string
}

var _ ledger.Appender = (*Client)(nil)

// New creates a Sheets-backed ledger client. The spreadsheet itself is not
// contacted until the first append.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SheetName) == "" && strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing sheet name and spreadsheet ID")
	}

	credentialsJSON, err := resolveCredentials(opts)
	if err != nil {
		return nil, err
	}

	sheets, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	drive, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveMetadataReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Client{
		sheets:        sheets,
		drive:         drive,
		name:          strings.TrimSpace(opts.SheetName),
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
	}, nil
}

// resolveCredentials picks service-account JSON from the options, inline
// first, then file, then the standard GOOGLE_APPLICATION_CREDENTIALS path.
func resolveCredentials(opts Options) ([]byte, error) {
	if j := strings.TrimSpace(opts.CredentialsJSON); j != "" {
		return []byte(j), nil
	}
	file := strings.TrimSpace(opts.CredentialsFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDS_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// Append writes exactly one row to the first sheet of the configured
// spreadsheet. No retries: any failure is returned to the caller as-is for
// categorization.
func (c *Client) Append(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.sheets == nil {
		return errors.New("sheets service not initialized")
	}

	id, sheet, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("'%s'!A:E", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(e)}}

	_, err = c.sheets.Spreadsheets.Values.Append(id, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Expense row appended",
		"sheet", sheet, "category", e.Category.Label, "amount_cents", e.Amount.Cents)
	return nil
}

// rowValues builds the ordered cell values of one ledger row. Column order
// is a contract with the external sheet.
func rowValues(e core.Expense) []any {
	return []any{
		e.Date.Ledger(),
		e.Description,
		e.Category.Label,
		e.Amount.Decimal().InexactFloat64(),
		core.Kind,
	}
}

// resolve returns the spreadsheet ID and the title of its first sheet,
// looking both up on first use and caching them for the process lifetime.
func (c *Client) resolve(ctx context.Context) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.spreadsheetID == "" {
		id, err := c.lookupByName(ctx, c.name)
		if err != nil {
			return "", "", err
		}
		c.spreadsheetID = id
	}

	if c.firstSheet == "" {
		meta, err := c.sheets.Spreadsheets.Get(c.spreadsheetID).
			Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return "", "", fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
		}
		if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
			return "", "", fmt.Errorf("spreadsheet %s has no sheets", c.spreadsheetID)
		}
		c.firstSheet = meta.Sheets[0].Properties.Title
	}

	return c.spreadsheetID, c.firstSheet, nil
}

// lookupByName finds a spreadsheet by its Drive file name.
func (c *Client) lookupByName(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf(
		"name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		escapeQueryValue(name))
	list, err := c.drive.Files.List().Q(query).
		Fields("files(id, name)").PageSize(2).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("lookup spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q: %w", name, ledger.ErrSpreadsheetNotFound)
	}
	if len(list.Files) > 1 {
		slog.Warn("Multiple spreadsheets share the configured name, using the first",
			"sheet", name, "id", list.Files[0].Id)
	}
	return list.Files[0].Id, nil
}

// escapeQueryValue escapes single quotes and backslashes for Drive queries.
func escapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
