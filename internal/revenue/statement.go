package revenue

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"github.com/iliyamo/campus-marketplace/internal/model"
)

// WriteStatement renders snap as a one page A4 PDF statement. Transactions
// beyond the page are summarised in a trailing line.
//
// The core Helvetica font covers cp1252 only. Listing names and usernames
// are translated to it; characters outside cp1252 print as '.'.
func WriteStatement(out io.Writer, snap *model.RevenueSnapshot) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	renderStatement(pdf, snap)
	return pdf.Output(out)
}

func renderStatement(pdf *gofpdf.Fpdf, snap *model.RevenueSnapshot) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Revenue Statement", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "REVENUE STATEMENT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Owner      : "+tr(snap.OwnerID))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Generated  : "+snap.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Total revenue : %d", snap.TotalRevenue))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Paid bookings : %d", snap.PaidBookingsCount))
	pdf.Ln(6)
	for _, t := range model.ServiceTypes {
		pdf.Cell(0, 6, fmt.Sprintf("%-18s: %d", t.Label(), snap.ServiceTypeRevenue[t]))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	if len(snap.MonthlyData) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "By month")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, m := range snap.MonthlyData {
			pdf.CellFormat(60, 6, tr(m.Label), "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%d", m.Revenue), "", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Transactions")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 10)
	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Date", 25, "L"}, {"Service", 60, "L"}, {"Student", 40, "L"}, {"Months", 20, "R"}, {"Amount", 35, "R"},
	}
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.title, "B", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	const maxRows = 25
	for i, tx := range snap.RecentTransactions {
		if i == maxRows {
			pdf.Ln(2)
			pdf.Cell(0, 6, fmt.Sprintf("... and %d more", len(snap.RecentTransactions)-maxRows))
			break
		}
		student := "-"
		if tx.Student != nil {
			student = tr(tx.Student.Username)
		}
		name := tr(tx.ServiceName)
		if name == "" {
			name = tx.ServiceType.Label()
		}
		vals := []string{tx.Date.UTC().Format("2006-01-02"), name, student, fmt.Sprintf("%d", tx.Duration), fmt.Sprintf("%d", tx.Amount)}
		for j, c := range cols {
			pdf.CellFormat(c.width, 6, vals[j], "", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}
