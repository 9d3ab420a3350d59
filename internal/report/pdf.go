package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/lox/roomaudit/internal/audit"
	"github.com/lox/roomaudit/internal/models"
)

const AuditTitle = "Smart Room-by-Room Audit Report"

// DefaultCurrency labels costs in the audit report.
const DefaultCurrency = "SAR"

func flagHeading(label string) string {
	heading := strings.ToUpper(label[:1]) + label[1:]
	if category := audit.CategoryOf(label); category != "" {
		c := string(category)
		heading = "[" + strings.ToUpper(c[:1]) + c[1:] + "] " + heading
	}
	return heading
}

// BuildAuditPDF renders one section per room-day audit, in the order given.
func BuildAuditPDF(audits []models.RoomDayAudit, currency string) ([]byte, error) {
	if currency == "" {
		currency = DefaultCurrency
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(AuditTitle, true)
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, AuditTitle, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	})
	pdf.AddPage()

	if len(audits) == 0 {
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 8, "No readings matched this report.", "", "L", false)
	}

	for _, a := range audits {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Date: %s - Room %s (%s)", a.Date, a.RoomID, a.RoomType)), "", 1, "L", false, 0, "")
		if len(a.Flags) == 0 {
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 8, "No issues detected.", "", "L", false)
		}
		for _, flag := range a.Flags {
			pdf.SetFont("Arial", "B", 10)
			pdf.MultiCell(0, 8, tr("- "+flagHeading(flag.Label)), "", "L", false)
			pdf.SetFont("Arial", "", 10)
			if flag.DurationMinutes.Valid {
				pdf.MultiCell(0, 8, fmt.Sprintf("  - Detected for ~%d minutes", flag.DurationMinutes.Int64), "", "L", false)
			}
			if flag.EnergyKWh > 0 {
				pdf.MultiCell(0, 8, fmt.Sprintf("  - Estimated extra energy: %.2f kWh", flag.EnergyKWh), "", "L", false)
			}
			if flag.Cost > 0 {
				pdf.MultiCell(0, 8, tr(fmt.Sprintf("  - Estimated cost: %.2f %s", flag.Cost, currency)), "", "L", false)
			}
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
