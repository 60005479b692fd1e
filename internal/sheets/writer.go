package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/report"
)

// ReportWriter publishes a report somewhere outside the dashboard.
type ReportWriter interface {
	Write(ctx context.Context, rep *report.Report) (string, error)
}

// Writer publishes reports to a Google spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer. ts authenticates as
// the signed-in user and is ignored when the config names a service account.
// Extra client options are passed to the Sheets client.
func NewWriter(ctx context.Context, config Config, ts oauth2.TokenSource, logger *slog.Logger, opts ...option.ClientOption) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := createSheetsService(ctx, config, ts, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

func createSheetsService(ctx context.Context, config Config, ts oauth2.TokenSource, opts []option.ClientOption) (*sheets.Service, error) {
	switch {
	case config.ServiceAccountPath != "":
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		opts = append([]option.ClientOption{option.WithTokenSource(jwtConfig.TokenSource(ctx))}, opts...)
	case ts != nil:
		opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	case len(opts) == 0:
		return nil, common.ErrNotSignedIn
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// Write publishes every report tab and returns the spreadsheet ID.
func (w *Writer) Write(ctx context.Context, rep *report.Report) (string, error) {
	w.logger.Info("starting report publish",
		"date_range", fmt.Sprintf("%s to %s", rep.Range.Start.Format("2006-01-02"), rep.Range.End.Format("2006-01-02")))

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		Multiplier:   2.0,
	}

	var spreadsheet *sheets.Spreadsheet
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheet, err = w.getOrCreateSpreadsheet(ctx)
		return classify(err)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	sheetIDs, err := w.ensureTabs(ctx, spreadsheet)
	if err != nil {
		return "", fmt.Errorf("failed to prepare tabs: %w", err)
	}

	id := spreadsheet.SpreadsheetId
	rows := 0
	for _, tab := range Tabs(rep) {
		err := common.WithRetry(ctx, func() error {
			if err := w.clearTab(ctx, id, tab.Title); err != nil {
				return classify(err)
			}
			return classify(w.writeTab(ctx, id, tab))
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("failed to write %s: %w", tab.Title, err)
		}
		rows += len(tab.Rows)
	}

	if w.config.EnableFormatting {
		err := common.WithRetry(ctx, func() error {
			return classify(w.applyFormatting(ctx, id, sheetIDs))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report publish completed",
		"spreadsheet_id", id,
		"rows_written", rows)

	return id, nil
}

// classify marks client errors as final so only rate limits and server
// errors are retried.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
		case apiErr.Code >= 400 && apiErr.Code < 500:
			return &common.RetryableError{Err: err, Retryable: false}
		}
	}
	return err
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (*sheets.Spreadsheet, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return existing, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
	}
	for _, title := range TabTitles {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: title},
		})
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created, nil
}

// ensureTabs adds any missing tab and returns the sheet ID of each title.
func (w *Writer) ensureTabs(ctx context.Context, spreadsheet *sheets.Spreadsheet) (map[string]int64, error) {
	ids := make(map[string]int64, len(TabTitles))
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}

	var requests []*sheets.Request
	for _, title := range TabTitles {
		if _, ok := ids[title]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			})
		}
	}
	if len(requests) == 0 {
		return ids, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheet.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	return ids, nil
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, title string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, quoteRange(title, "A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeTab writes the tab in batches to stay under API request limits.
func (w *Writer) writeTab(ctx context.Context, spreadsheetID string, tab Tab) error {
	for i := 0; i < len(tab.Rows); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(tab.Rows))

		batch := tab.Rows[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := quoteRange(tab.Title, fmt.Sprintf("A%d", i+1))
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "tab", tab.Title, "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func quoteRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", title, cells)
}

// applyFormatting bolds and freezes each tab's header row and resizes columns.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetIDs map[string]int64) error {
	requests := make([]*sheets.Request, 0, len(sheetIDs)*3)
	for _, title := range TabTitles {
		id, ok := sheetIDs[title]
		if !ok {
			continue
		}
		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:       id,
						StartRowIndex: 0,
						EndRowIndex:   1,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId: id,
						GridProperties: &sheets.GridProperties{
							FrozenRowCount: 1,
						},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
			&sheets.Request{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						SheetId:    id,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   6,
					},
				},
			},
		)
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
