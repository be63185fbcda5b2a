package revenue

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/campus-marketplace/internal/model"
)

const (
	sheetSummary      = "Summary"
	sheetMonthly      = "Monthly"
	sheetTransactions = "Transactions"
)

// workbook appends rows sheet by sheet.
type workbook struct {
	file  *excelize.File
	sheet string
	row   int
	bold  int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &workbook{file: f, bold: bold}, nil
}

func (w *workbook) addSheet(name string) error {
	if w.sheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	w.sheet = name
	w.row = 1
	return nil
}

func (w *workbook) header(cols ...string) error {
	vals := make([]interface{}, len(cols))
	for i, c := range cols {
		vals[i] = c
	}
	if err := w.write(vals...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, w.row-1)
	last, _ := excelize.CoordinatesToCellName(len(cols), w.row-1)
	return w.file.SetCellStyle(w.sheet, first, last, w.bold)
}

func (w *workbook) write(vals ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &vals); err != nil {
		return err
	}
	w.row++
	return nil
}

// WriteWorkbook renders snap as an xlsx workbook with Summary, Monthly and
// Transactions sheets.
func WriteWorkbook(out io.Writer, snap *model.RevenueSnapshot) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	defer w.file.Close()

	if err := w.addSheet(sheetSummary); err != nil {
		return err
	}
	if err := w.header("Metric", "Value"); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Owner", snap.OwnerID},
		{"Generated at", snap.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")},
		{"Total revenue", snap.TotalRevenue},
		{"Paid bookings", snap.PaidBookingsCount},
	}
	for _, t := range model.ServiceTypes {
		rows = append(rows, []interface{}{t.Label() + " revenue", snap.ServiceTypeRevenue[t]})
	}
	for _, r := range rows {
		if err := w.write(r...); err != nil {
			return err
		}
	}

	if err := w.addSheet(sheetMonthly); err != nil {
		return err
	}
	if err := w.header("Month", "Label", "Revenue"); err != nil {
		return err
	}
	for _, m := range snap.MonthlyData {
		if err := w.write(m.Month, m.Label, m.Revenue); err != nil {
			return err
		}
	}

	if err := w.addSheet(sheetTransactions); err != nil {
		return err
	}
	if err := w.header("Booking", "Date", "Service", "Type", "Student", "Monthly price", "Months", "Duration", "Amount"); err != nil {
		return err
	}
	for _, tx := range snap.RecentTransactions {
		student := ""
		if tx.Student != nil {
			student = tx.Student.Username
		}
		if err := w.write(tx.ID, tx.Date.UTC().Format("2006-01-02"), tx.ServiceName, tx.ServiceType.Label(),
			student, tx.MonthlyPrice, tx.Duration, tx.OriginalDuration, tx.Amount); err != nil {
			return err
		}
	}

	w.file.SetActiveSheet(0)
	return w.file.Write(out)
}
