package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"energydash/internal/core"
	"energydash/internal/ports"
)

// Config selects the spreadsheet and the credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

const defaultSheetName = "Energy Data"

// valuesAPI is the part of the Sheets values service the mirror uses.
type valuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error
}

// Client mirrors committed snapshots into one sheet of a spreadsheet.
type Client struct {
	values        valuesAPI
	spreadsheetID string
	sheetName     string
}

var _ ports.SnapshotMirror = (*Client)(nil)

// New creates a Sheets client using Service Account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return newClient(&serviceValues{svc: svc}, spreadsheetID, cfg.SheetName), nil
}

func newClient(values valuesAPI, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	return &Client{
		values:        values,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither inline JSON nor a file is configured.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	credentialsJSON, err := loadCredentials(serviceAccountJSON, serviceAccountFile)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(inline, file string) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
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

// Name implements ports.SnapshotMirror.
func (c *Client) Name() string { return "sheets" }

// DataRange is the A1 range holding header and records.
func (c *Client) DataRange() string {
	return fmt.Sprintf("'%s'!A1:G", strings.ReplaceAll(c.sheetName, "'", "''"))
}

// Mirror replaces the sheet contents with the snapshot.
func (c *Client) Mirror(ctx context.Context, commit core.CommitInfo, records []core.Record) error {
	if c.values == nil {
		return errors.New("sheets service not initialized")
	}

	rng := c.DataRange()
	if err := c.values.Clear(ctx, c.spreadsheetID, rng); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	if err := c.values.Update(ctx, c.spreadsheetID, rng, snapshotValues(records)); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Mirrored snapshot to Google Sheets",
		"commit_id", commit.ID,
		"rows", len(records),
		"sheet", c.sheetName)
	return nil
}

// snapshotValues lays the records out as a header row plus one row per
// record, in canonical field order.
func snapshotValues(records []core.Record) [][]interface{} {
	values := make([][]interface{}, 0, len(records)+1)

	header := make([]interface{}, len(core.Fields))
	for i, f := range core.Fields {
		header[i] = f
	}
	values = append(values, header)

	for _, r := range records {
		values = append(values, []interface{}{
			r.ID,
			r.Period,
			r.Consumption,
			r.Cost,
			r.Saved,
			r.MoneySaved,
			r.SavingsPercentage,
		})
	}
	return values
}

// serviceValues adapts *gsheet.Service to valuesAPI.
type serviceValues struct {
	svc *gsheet.Service
}

func (s *serviceValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (s *serviceValues) Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}
