package pipeline

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"estimatex/internal"
)

var reCollapseSpaces = regexp.MustCompile(`\s+`)

// ParseHTMLItems extracts input items from an HTML estimate table: the first
// table whose header row names a code and description column.
func ParseHTMLItems(r io.Reader) ([]internal.InputItem, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var items []internal.InputItem
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}

		var headers []string
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, cellText(cell))
		})

		cols := inferColumns(headers)
		if !cols.usable() {
			return true
		}

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cellText(cell))
			})
			if item, ok := rowToItem(cells, cols, len(items)+1); ok {
				items = append(items, item)
			}
		})
		return false
	})

	return dedupeByRawCode(items), nil
}

func cellText(cell *goquery.Selection) string {
	return strings.TrimSpace(reCollapseSpaces.ReplaceAllString(cell.Text(), " "))
}
