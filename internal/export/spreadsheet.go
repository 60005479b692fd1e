package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/findash/internal/model"
)

// Sheet names in the workbook.
const (
	AccountsSheet = "Accounts"
	RecordsSheet  = "Records"
)

var recordHeader = []string{"Date", "Type", "Category", "Amount", "Note", "Recurring Rule"}

// WriteXLSX writes a workbook with one sheet of accounts and one of records,
// newest record first. Accounts should be normalized so the reporting column
// is filled in.
func WriteXLSX(w io.Writer, accounts []model.AssetAccount, records []model.CashflowRecord, reporting model.Currency) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", AccountsSheet); err != nil {
		return fmt.Errorf("failed to name accounts sheet: %w", err)
	}
	if _, err := f.NewSheet(RecordsSheet); err != nil {
		return fmt.Errorf("failed to create records sheet: %w", err)
	}

	rows := [][]any{{"Name", "Type", "Currency", "Balance", "Balance (" + string(reporting) + ")"}}
	for _, a := range accounts {
		rows = append(rows, []any{a.Name, string(a.Type), string(a.Currency), a.Balance, a.DisplayBalance})
	}
	if err := writeRows(f, AccountsSheet, rows); err != nil {
		return err
	}

	rows = [][]any{toAny(recordHeader)}
	for _, r := range sortedRecords(records) {
		rows = append(rows, []any{r.Date.Format("2006-01-02"), recordType(r), r.Category, r.Amount, r.Note, r.RecurringRuleID})
	}
	if err := writeRows(f, RecordsSheet, rows); err != nil {
		return err
	}

	widths := map[string]float64{"A": 12, "B": 10, "C": 18, "D": 14, "E": 30, "F": 38}
	for col, width := range widths {
		if err := f.SetColWidth(RecordsSheet, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}
	if err := f.SetColWidth(AccountsSheet, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to size accounts column: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// WriteRecordsCSV writes records as CSV, newest first.
func WriteRecordsCSV(w io.Writer, records []model.CashflowRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range sortedRecords(records) {
		if err := cw.Write([]string{
			r.Date.Format("2006-01-02"),
			recordType(r),
			r.Category,
			strconv.FormatFloat(r.Amount, 'f', 2, 64),
			r.Note,
			r.RecurringRuleID,
		}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func sortedRecords(records []model.CashflowRecord) []model.CashflowRecord {
	out := make([]model.CashflowRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func recordType(r model.CashflowRecord) string {
	if r.IsIncome() {
		return "income"
	}
	return "expense"
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
