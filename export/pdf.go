package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"p9e.in/sitelog/models"
)

const activitiesPreview = 50

type rgb struct{ r, g, b int }

var (
	colorTitle    = rgb{0x1E, 0x3A, 0x8A}
	colorLabelBg  = rgb{0xF3, 0xF4, 0xF6}
	colorLabelFg  = rgb{0x4B, 0x55, 0x63}
	colorMetricBg = rgb{0x3B, 0x82, 0xF6}
	colorValueBg  = rgb{0xEF, 0xF6, 0xFF}
	colorRowBg    = rgb{0xF9, 0xFA, 0xFB}
	colorGrid     = rgb{0xE5, 0xE7, 0xEB}
)

type pdfDoc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newDoc() *pdfDoc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return &pdfDoc{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *pdfDoc) fill(c rgb) { d.SetFillColor(c.r, c.g, c.b) }
func (d *pdfDoc) text(c rgb) { d.SetTextColor(c.r, c.g, c.b) }

func (d *pdfDoc) title(s string) {
	d.SetFont("Helvetica", "B", 16)
	d.text(colorTitle)
	d.CellFormat(0, 10, d.tr(s), "", 1, "L", false, 0, "")
	d.Ln(4)
	d.text(rgb{0, 0, 0})
}

func (d *pdfDoc) heading(s string) {
	d.SetFont("Helvetica", "B", 12)
	d.CellFormat(0, 8, d.tr(s), "", 1, "L", false, 0, "")
}

// keyValues draws a two-column label/value table.
func (d *pdfDoc) keyValues(rows [][2]string, labelBg, labelFg, valueBg rgb, fillValues bool) {
	d.SetDrawColor(colorGrid.r, colorGrid.g, colorGrid.b)
	for _, row := range rows {
		d.SetFont("Helvetica", "B", 10)
		d.fill(labelBg)
		d.text(labelFg)
		d.CellFormat(45, 8, d.tr(row[0]), "1", 0, "R", true, 0, "")
		d.SetFont("Helvetica", "", 10)
		d.fill(valueBg)
		d.text(rgb{0, 0, 0})
		d.CellFormat(0, 8, d.tr(row[1]), "1", 1, "L", fillValues, 0, "")
	}
	d.Ln(6)
}

func (d *pdfDoc) paragraph(s string) {
	d.SetFont("Helvetica", "", 10)
	d.MultiCell(0, 5, d.tr(s), "", "L", false)
	d.Ln(3)
}

// WriteReportPDF renders a single daily report.
func WriteReportPDF(w io.Writer, r *models.DailyReport) error {
	d := newDoc()
	d.title("Daily Site Report")

	project, author := r.ProjectID.String(), r.AuthorID.String()
	if r.Project != nil {
		project = r.Project.Name
	}
	if r.Author != nil {
		author = r.Author.Name
	}
	d.keyValues([][2]string{
		{"Date:", r.Date.String()},
		{"Project:", project},
		{"Reported by:", author},
		{"Status:", r.Status.Label()},
		{"Productivity:", fmt.Sprintf("%.1f%%", r.Productivity)},
	}, colorLabelBg, colorLabelFg, rgb{255, 255, 255}, false)

	sections := []struct{ title, body string }{
		{"Weather", r.Weather},
		{"Activities", r.Activities},
		{"Crew on site", r.Crew},
		{"Equipment", r.Equipment},
		{"Incidents", r.Incidents},
		{"Accidents", r.Accidents},
		{"Plan for tomorrow", r.NextDayPlan},
		{"Observations", r.Observations},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		d.heading(s.title + ":")
		d.paragraph(s.body)
	}

	if len(r.ActivityItems) > 0 {
		d.heading("Activity checklist:")
		d.SetFont("Helvetica", "", 10)
		for _, a := range r.ActivityItems {
			d.SetFont("Helvetica", "B", 10)
			d.CellFormat(0, 6, d.tr(a.Name), "", 1, "L", false, 0, "")
			d.SetFont("Helvetica", "", 10)
			for _, s := range a.SubActivities {
				mark := "[ ]"
				if s.Done {
					mark = "[x]"
				}
				d.CellFormat(0, 5, d.tr("    "+mark+" "+s.Name), "", 1, "L", false, 0, "")
			}
		}
	}

	return d.Output(w)
}

// Truncate shortens s to n runes followed by "..." when longer.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// WriteMonthlyPDF renders the monthly summary with one row per reported day.
func WriteMonthlyPDF(w io.Writer, s models.MonthlySummary) error {
	d := newDoc()
	d.title("Monthly Site Report")
	d.heading("Project: " + s.ProjectName)
	d.heading(fmt.Sprintf("Month: %02d/%d", s.Month, s.Year))
	d.Ln(6)

	d.keyValues([][2]string{
		{"Days worked:", fmt.Sprintf("%d", s.DaysWorked)},
		{"Days completed:", fmt.Sprintf("%d", s.CompletedDays)},
		{"Average productivity:", fmt.Sprintf("%.1f%%", s.AverageProductivity)},
		{"Accident-free days:", fmt.Sprintf("%d", s.AccidentFreeDays)},
	}, colorMetricBg, rgb{255, 255, 255}, colorValueBg, true)

	if len(s.Rows) == 0 {
		return d.Output(w)
	}

	widths := []float64{25, 85, 25, 25, 20}
	headers := []string{"Date", "Activities", "Status", "Productivity", "Accident"}
	d.SetFont("Helvetica", "B", 10)
	d.fill(colorTitle)
	d.text(rgb{255, 255, 255})
	d.SetDrawColor(colorGrid.r, colorGrid.g, colorGrid.b)
	for i, h := range headers {
		d.CellFormat(widths[i], 9, h, "1", 0, "C", true, 0, "")
	}
	d.Ln(-1)

	d.SetFont("Helvetica", "", 8)
	d.fill(colorRowBg)
	d.text(rgb{0, 0, 0})
	for _, row := range s.Rows {
		accident := "No"
		if row.Accident {
			accident = "Yes"
		}
		cells := []string{
			row.Date.String(),
			Truncate(row.Activities, activitiesPreview),
			row.Status.Label(),
			fmt.Sprintf("%.1f%%", row.Productivity),
			accident,
		}
		for i, c := range cells {
			d.CellFormat(widths[i], 7, d.tr(c), "1", 0, "C", true, 0, "")
		}
		d.Ln(-1)
	}

	d.SetFont("Helvetica", "I", 8)
	d.Ln(4)
	d.CellFormat(0, 5, "Generated "+time.Now().Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")
	return d.Output(w)
}
