// Package sheets implements the tabular store backend against the Google
// Sheets values API. Rows are read as a single rectangular fetch starting
// at the header; writes address one cell or one trailing row by A1 range.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/dukaforge/sheetledger/pkg/types"
)

// Store implements types.Store over one sheet of one spreadsheet. Construct
// it once at process start and reuse it for all requests; the underlying
// HTTP client is safe for concurrent use.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetName     string
	timeout       time.Duration
	log           *zap.Logger
}

// New builds a Store from the sheets parameters in cfg. Credentials come
// from cfg.CredentialsFile when set, otherwise application default
// credentials.
func New(ctx context.Context, cfg types.Config, log *zap.Logger) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		timeout:       time.Duration(cfg.StoreTimeoutSeconds) * time.Second,
		log:           log,
	}, nil
}

// ReadRows fetches the sheet's whole used range as strings, header first.
func (s *Store) ReadRows(ctx context.Context) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Addressing the bare sheet name returns the entire used range,
	// starting at A1 where the header row lives.
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("'%s'", s.sheetName)).
		Context(ctx).Do()
	if err != nil {
		return nil, unavailable("reading rows", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			if cell != nil {
				row[j] = fmt.Sprint(cell)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteCell overwrites a single cell with a RAW (unparsed) value.
func (s *Store) WriteCell(ctx context.Context, row, col int, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rng := cellRange(s.sheetName, row, col)
	vr := &sheetsapi.ValueRange{Values: [][]any{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return unavailable(fmt.Sprintf("writing cell %s", rng), err)
	}
	s.log.Debug("cell written", zap.String("range", rng))
	return nil
}

// AppendRow adds a row after the sheet's last occupied row.
func (s *Store) AppendRow(ctx context.Context, values []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	vr := &sheetsapi.ValueRange{Values: [][]any{cells}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, fmt.Sprintf("'%s'!A1", s.sheetName), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return unavailable("appending row", err)
	}
	return nil
}

// Close is a no-op; the sheets service holds no resources needing release.
func (s *Store) Close() error { return nil }

// unavailable wraps an API failure so callers can match
// types.ErrStoreUnavailable while keeping the underlying error chain.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(types.ErrStoreUnavailable, err))
}
