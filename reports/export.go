package reports

import (
	"bytes"
	"fmt"

	"alternanceetmoi.fr/reports/models"
	"alternanceetmoi.fr/reports/utils"
	"github.com/xuri/excelize/v2"
)

const exportSheet string = "Rapports"

// ExportHeaders are the column titles of the spreadsheet export.
type ExportHeaders struct {
	Date        string
	Title       string
	Content     string
	Attachments string
	CreatedAt   string
	UpdatedAt   string
}

func (h ExportHeaders) row() []any {
	return []any{h.Date, h.Title, h.Content, h.Attachments, h.CreatedAt, h.UpdatedAt}
}

// ExportXLSX renders the reports as a workbook with one row per report.
func ExportXLSX(list []models.Report, headers ExportHeaders) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	header := headers.row()
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetCellStyle(exportSheet, "A1", "F1", style); err != nil {
		return nil, err
	}

	for i, r := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		row := []any{
			r.Date.Format(utils.DateLayout),
			r.Title,
			r.Content,
			attachmentSummary(r.Attachments),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.UpdatedAt.Format("2006-01-02 15:04"),
		}

		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	for _, w := range []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 12},
		{"B", "B", 40},
		{"C", "C", 80},
		{"D", "D", 40},
		{"E", "F", 18},
	} {
		if err := f.SetColWidth(exportSheet, w.from, w.to, w.width); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

func attachmentSummary(list models.Attachments) string {
	if len(list) < 1 {
		return ""
	}

	s := ""

	for i, a := range list {
		if i > 0 {
			s += "\n"
		}

		s += fmt.Sprintf("%s (%s)", a.Name, utils.FormatFileSize(a.Size))
	}

	return s
}
