package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"tripfare/pricesearch"
)

type ReportField struct {
	Label string
	Value string
}

type ReportMatch struct {
	Label    string
	Price    float64
	Currency string
}

// SearchReport is everything the PDF shows about one stored search.
type SearchReport struct {
	SearchID                    string
	Kind                        string // "flights" or "hotels"
	CreatedAt                   time.Time
	Filters                     []ReportField
	TargetPrice                 float64
	Tolerance                   float64
	FinalTolerance              float64
	Adaptive                    bool
	FoundWithinInitialTolerance bool
	DomainMin                   *float64
	DomainMax                   *float64
	Iterations                  int
	Queries                     int
	Elapsed                     time.Duration
	Phase                       string
	Matches                     []ReportMatch
	Steps                       []pricesearch.Step
	Histogram                   *pricesearch.Histogram
}

// Reportable is a record that can be listed in a search report.
type Reportable interface {
	pricesearch.Pricer
	Label() string
	PriceCurrency() string
}

// ReportFilter is a filter that can describe itself in a search report.
type ReportFilter interface {
	ReportFields() []ReportField
}

// NewSearchReport collects what a report shows from a stored request and result.
func NewSearchReport[R Reportable, F ReportFilter](id, kind string, createdAt time.Time, req pricesearch.Request[F], res *pricesearch.Result[R]) SearchReport {
	matches := make([]ReportMatch, len(res.Matches))
	for i, m := range res.Matches {
		matches[i] = ReportMatch{Label: m.Label(), Price: m.PriceValue(), Currency: m.PriceCurrency()}
	}
	return SearchReport{
		SearchID:                    id,
		Kind:                        kind,
		CreatedAt:                   createdAt,
		Filters:                     req.Filter.ReportFields(),
		TargetPrice:                 req.TargetPrice,
		Tolerance:                   req.Tolerance,
		FinalTolerance:              res.FinalTolerance,
		Adaptive:                    req.AdaptiveTolerance,
		FoundWithinInitialTolerance: res.FoundWithinInitialTolerance,
		DomainMin:                   res.DomainMin,
		DomainMax:                   res.DomainMax,
		Iterations:                  res.Iterations,
		Queries:                     res.Queries,
		Elapsed:                     res.Elapsed,
		Phase:                       string(res.Phase),
		Matches:                     matches,
		Steps:                       res.Steps,
		Histogram:                   res.Histogram,
	}
}

// GenerateSearchReport renders a search report and returns the PDF bytes.
func GenerateSearchReport(data SearchReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "TripFare", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67) // gold
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Price Search Report", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, value, "", 1, "L", false, 0, "")
	}

	// ── Request ───────────────────────────────────────────────
	sectionHeader("Search Request")
	row("Search ID", data.SearchID)
	row("Searched", data.CreatedAt.UTC().Format("02 Jan 2006, 15:04 UTC"))
	row("Catalog", data.Kind)
	for _, f := range data.Filters {
		row(f.Label, f.Value)
	}
	row("Target price", money(data.TargetPrice))
	row("Tolerance", "+/- "+money(data.Tolerance))
	row("Adaptive tolerance", yesNo(data.Adaptive))
	pdf.Ln(4)

	// ── Outcome ───────────────────────────────────────────────
	sectionHeader("Outcome")
	if data.DomainMin != nil && data.DomainMax != nil {
		row("Price range", money(*data.DomainMin)+" - "+money(*data.DomainMax))
	} else {
		row("Price range", "No records match the filters")
	}
	row("Final tolerance", "+/- "+money(data.FinalTolerance))
	row("Within initial tolerance", yesNo(data.FoundWithinInitialTolerance))
	row("Resolved by", data.Phase)
	row("Iterations / queries", fmt.Sprintf("%d / %d", data.Iterations, data.Queries))
	row("Elapsed", data.Elapsed.String())
	pdf.Ln(4)

	// ── Matches ───────────────────────────────────────────────
	sectionHeader(fmt.Sprintf("Matches (%d)", len(data.Matches)))
	if len(data.Matches) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(170, 7, "Nothing found near the target price.", "", 1, "L", false, 0, "")
	}
	for i, m := range data.Matches {
		row(fmt.Sprintf("%d. %s", i+1, truncate(m.Label, 30)),
			fmt.Sprintf("%s %s (%+.2f from target)", money(m.Price), m.Currency, m.Price-data.TargetPrice))
	}
	pdf.Ln(4)

	// ── Trace ─────────────────────────────────────────────────
	if len(data.Steps) > 0 {
		sectionHeader("Search Trace")
		widths := []float64{14, 30, 30, 30, 36, 30}
		pdf.SetFont("Helvetica", "B", 9)
		for i, h := range []string{"#", "Window low", "Window high", "Probe", "Band", "Matches"} {
			pdf.CellFormat(widths[i], 6, h, "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, st := range data.Steps {
			cells := []string{
				fmt.Sprintf("%d", st.Iteration),
				fmt.Sprintf("%.2f", st.Low),
				fmt.Sprintf("%.2f", st.High),
				fmt.Sprintf("%.2f", st.Probe),
				fmt.Sprintf("%.2f-%.2f", st.BandLow, st.BandHigh),
				fmt.Sprintf("%d", st.MatchesAtStep),
			}
			for i, c := range cells {
				pdf.CellFormat(widths[i], 6, c, "", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	// ── Histogram ─────────────────────────────────────────────
	if h := data.Histogram; h != nil && len(h.Counts) > 0 {
		sectionHeader("Price Distribution")
		drawHistogram(pdf, h)
	}

	// ── Footer ────────────────────────────────────────────────
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8, "Generated by TripFare - prices are estimates and subject to change", "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

// drawHistogram draws one bar per bin, gold where the bin holds the target.
func drawHistogram(pdf *gofpdf.Fpdf, h *pricesearch.Histogram) {
	const chartW, chartH = 170.0, 45.0

	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}
	if peak == 0 {
		return
	}
	if pdf.GetY()+chartH+12 > 270 {
		pdf.AddPage()
	}

	x0, y0 := 20.0, pdf.GetY()
	barW := chartW / float64(len(h.Counts))
	for i, c := range h.Counts {
		barH := chartH * float64(c) / float64(peak)
		if h.TargetPrice >= h.BinEdges[i] && h.TargetPrice <= h.BinEdges[i+1] {
			pdf.SetFillColor(212, 168, 67)
		} else {
			pdf.SetFillColor(13, 24, 37)
		}
		if barH > 0 {
			pdf.Rect(x0+float64(i)*barW+0.5, y0+chartH-barH, barW-1, barH, "F")
		}
	}

	pdf.SetY(y0 + chartH + 2)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(chartW/2, 5, money(h.BinEdges[0]), "", 0, "L", false, 0, "")
	pdf.CellFormat(chartW/2, 5, money(h.BinEdges[len(h.BinEdges)-1]), "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
