package pipeline

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"estimatex/internal/document"
)

const (
	rowTolerance = 2.0
	blockGap     = 14.0
)

// ConvertPDF reads a PDF and produces the page/block/line document the
// extractors consume. Text spans are grouped into rows by baseline, rows
// into blocks by vertical proximity. Layout fidelity beyond that grouping is
// out of scope; the extractors only need line grouping.
func ConvertPDF(path string) (*document.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc := &document.Document{Source: path}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		rows := groupRows(p.Content().Text)
		page := document.Page{Number: i, Blocks: groupBlocks(rows)}
		if len(page.Blocks) > 0 {
			doc.Pages = append(doc.Pages, page)
		}
	}

	return doc, nil
}

type textRow struct {
	y    float64
	text string
}

// groupRows clusters spans sharing a baseline into one line, top of page
// first.
func groupRows(texts []pdf.Text) []textRow {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []textRow
	for _, t := range sorted {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}
		if len(rows) > 0 && abs(rows[len(rows)-1].y-t.Y) <= rowTolerance {
			rows[len(rows)-1].text += " " + s
			continue
		}
		rows = append(rows, textRow{y: t.Y, text: s})
	}
	return rows
}

// groupBlocks splits consecutive rows into blocks wherever the vertical gap
// exceeds the block threshold.
func groupBlocks(rows []textRow) []document.Block {
	var blocks []document.Block
	var current document.Block

	for i, row := range rows {
		if i > 0 && rows[i-1].y-row.y > blockGap && len(current.Lines) > 0 {
			current.Text = strings.Join(current.Lines, "\n")
			blocks = append(blocks, current)
			current = document.Block{}
		}
		current.Lines = append(current.Lines, row.text)
	}
	if len(current.Lines) > 0 {
		current.Text = strings.Join(current.Lines, "\n")
		blocks = append(blocks, current)
	}

	return blocks
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
