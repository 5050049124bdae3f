// Package google mirrors transactions into a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"teddy/internal/core"
	"teddy/internal/log"
	ports "teddy/internal/sheets"
)

var _ ports.Mirror = (*Client)(nil)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	Location        *time.Location
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	logger        *log.Logger
}

// New creates a Sheets client authenticated with service account credentials,
// taken inline from CredentialsJSON or read from CredentialsFile.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg, logger,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a client with explicit API options, such as a custom
// endpoint.
func NewWithOptions(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		loc:           cfg.Location,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// Mirror clears columns A:E of the sheet and writes the header plus one row
// per transaction.
func (c *Client) Mirror(ctx context.Context, txs []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:E", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := ports.Rows(txs, c.loc)
	writeRange := fmt.Sprintf("%s!A1:E%d", c.sheetName, len(rows))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}

	c.logger.InfoContext(ctx, "Transactions mirrored to sheet",
		log.FieldOperation, log.OpMirror,
		"sheet", c.sheetName,
		log.FieldCount, len(txs))
	return nil
}
