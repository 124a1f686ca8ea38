package sheetsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	contractx "github.com/voxline/voxline/agent/contract"
)

type Config struct {
	SpreadsheetID string `envconfig:"SPREADSHEET_ID" split_words:"true" required:"true"`
	TokenFile     string `envconfig:"TOKEN_FILE" split_words:"true" default:"token.json"`
	SheetName     string `envconfig:"SHEET_NAME" split_words:"true" default:"Sheet1"`
}

// Adapter implements contract.DataSource against the Sheets values API using
// authorized-user credentials from a token file.
type Adapter struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
}

var _ contractx.DataSource = (*Adapter)(nil)

func New(ctx context.Context, cfg Config) (*Adapter, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	raw, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets token file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Adapter{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
	}, nil
}

func MustNew(ctx context.Context, cfg Config) *Adapter {
	adapter, err := New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return adapter
}

func (a *Adapter) ReadAll(ctx context.Context, readRange string) ([][]string, error) {
	resp, err := a.values.Get(a.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read range=%s: %v", contractx.ErrDataSource, readRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, strings.TrimSpace(fmt.Sprint(cell)))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (a *Adapter) UpdateCell(ctx context.Context, cellRange string, value string) (int64, error) {
	body := &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}
	resp, err := a.values.Update(a.spreadsheetID, cellRange, body).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("%w: update range=%s: %v", contractx.ErrDataSource, cellRange, err)
	}
	return resp.UpdatedCells, nil
}

func (a *Adapter) ClearRange(ctx context.Context, clearRange string) (string, error) {
	resp, err := a.values.Clear(a.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: clear range=%s: %v", contractx.ErrDataSource, clearRange, err)
	}
	return resp.ClearedRange, nil
}
