package infra

// pdf.go — receipt PDF generation using go-pdf/fpdf.
// Renders A7-size thermal receipt-style tickets with:
//   - Business name header
//   - Receipt number and timestamp
//   - Line table (product, qty, line total)
//   - Discount and tax lines (if applicable)
//   - Bold total
//   - Payment method breakdown
//
// The output file is saved to storagePath/receipt_{number}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"poscore/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateReceiptPDF renders a PDF receipt for a settled transaction.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GenerateReceiptPDF(txn *model.Transaction, businessName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("receipt_%s.pdf", txn.ReceiptNumber)
	filePath := filepath.Join(storagePath, fileName)

	// A7 ≈ 74mm × 105mm — close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, businessName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sales Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Receipt info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, txn.ReceiptNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, txn.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// ── Lines ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	totalDiscount := decimal.Zero
	for _, line := range txn.Lines {
		name := line.ProductID.String()[:8]
		if line.Product != nil {
			name = line.Product.Name
		}
		pdf.CellFormat(contentW*0.55, 4, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.15, 4, fmt.Sprintf("x%d", line.Qty), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.30, 4, line.LineTotal.StringFixed(2), "", 1, "R", false, 0, "")
		totalDiscount = totalDiscount.Add(line.Discount)
	}
	pdf.Ln(1)

	if totalDiscount.IsPositive() {
		pdf.CellFormat(contentW*0.70, 4, "Discount", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.30, 4, "-"+totalDiscount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if txn.TotalTax.IsPositive() {
		pdf.CellFormat(contentW*0.70, 4, "Tax", "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.30, 4, txn.TotalTax.StringFixed(2), "", 1, "R", false, 0, "")
	}

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW*0.70, 6, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.30, 6, txn.TotalGross.StringFixed(2), "T", 1, "R", false, 0, "")

	// ── Payments ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	for _, p := range txn.Payments {
		pdf.CellFormat(contentW*0.70, 4, p.Method, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.30, 4, p.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if txn.LoyaltyPointsEarned > 0 {
		pdf.Ln(1)
		pdf.CellFormat(contentW, 4, fmt.Sprintf("Loyalty points earned: %d", txn.LoyaltyPointsEarned), "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
