package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"habboverify/internal/models"
)

// Generator renders the verification records report.
type Generator interface {
	RecordsReport(w io.Writer, data ReportData) error
}

type ReportData struct {
	GuildID     string
	Records     []models.VerifiedUser
	GeneratedAt time.Time
}

// ReportGenerator draws with a TTF font when FontPath is set and with Helvetica otherwise.
type ReportGenerator struct {
	FontPath string
	fontName string
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	name := "Helvetica"
	if fontPath != "" {
		name = "DejaVu"
	}
	return &ReportGenerator{FontPath: fontPath, fontName: name}
}

var columns = []struct {
	title string
	width float64
}{
	{"#", 12},
	{"Discord user", 48},
	{"Habbo", 50},
	{"Status", 24},
	{"Created", 36},
}

func (g *ReportGenerator) RecordsReport(w io.Writer, data ReportData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Verified users", false)
	pdf.SetAuthor("habbo-verify", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	tr := func(s string) string { return s }
	if g.FontPath != "" {
		pdf.AddUTF8Font(g.fontName, "", g.FontPath)
		pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "Verified users", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	sub := fmt.Sprintf("guild %s, %s", data.GuildID, data.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)

	verified := 0
	for _, r := range data.Records {
		if r.Verified {
			verified++
		}
	}
	g.kvLine(pdf, "Records", fmt.Sprintf("%d", len(data.Records)))
	g.kvLine(pdf, "Verified", fmt.Sprintf("%d", verified))
	g.kvLine(pdf, "Pending", fmt.Sprintf("%d", len(data.Records)-verified))
	pdf.Ln(2)

	g.header(pdf)
	pdf.SetFont(g.fontName, "", 10)
	for i, r := range data.Records {
		if pdf.GetY() > 265 {
			pdf.AddPage()
			g.header(pdf)
			pdf.SetFont(g.fontName, "", 10)
		}
		status := "pending"
		if r.Verified {
			status = "verified"
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			r.UserID,
			tr(r.Habbo),
			status,
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		for j, c := range columns {
			pdf.CellFormat(c.width, 6, row[j], "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func (g *ReportGenerator) header(pdf *gofpdf.Fpdf) {
	pdf.SetFont(g.fontName, "B", 10)
	pdf.SetFillColor(241, 196, 15)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
