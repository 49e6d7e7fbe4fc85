package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/qurylys/procurement/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
}

// Generate renders a printable construction contract with its frozen line
// items and the signature state of both parties.
func (g *Generator) Generate(contract *model.Contract) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Construction Contract", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract No. %s", contract.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Dated %s", formatDate(contract.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addPartyBlock(pdf, g.fontName, "Homeowner", contract.HomeownerID.String(), contract.HomeownerSignedAt)
	pdf.Ln(2)
	addPartyBlock(pdf, g.fontName, "Contractor", contract.ContractorID.String(), contract.ContractorSignedAt)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Terms", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total amount: %s", formatAmount(contract.TotalAmount)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Duration: %d days", contract.DurationDays), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", contract.Status), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Scope of work", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)

	headers := []string{"#", "Description", "Amount", "Notes"}
	colWidths := []float64{12, 88, 40, 40}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, item := range contract.Items {
		row := []string{
			fmt.Sprintf("%d", item.Position),
			item.Name,
			formatAmount(item.Amount),
			item.Notes,
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addPartyBlock(pdf *gofpdf.Fpdf, font, label, id string, signedAt *time.Time) {
	pdf.SetFont(font, "B", 11)
	pdf.CellFormat(0, 6, label, "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("ID: %s", id), "", 1, "L", false, 0, "")
	if signedAt != nil {
		pdf.CellFormat(0, 5, fmt.Sprintf("Signed at %s", signedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(0, 5, "Signature pending", "", 1, "L", false, 0, "")
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, font string, cells []string, widths []float64, header bool) {
	if header {
		pdf.SetFont(font, "B", 10)
	} else {
		pdf.SetFont(font, "", 10)
	}
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
