// Package document holds the canonical page/block/line representation of a
// converted PDF and the JSON file shapes the pipeline reads and writes.
// Lines are normalized to plain strings at this boundary; extraction code
// never sees span dictionaries.
package document

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Block is a group of lines believed to belong together visually on a page.
type Block struct {
	Lines []string `json:"lines"`
	Text  string   `json:"text,omitempty"`
}

type Page struct {
	Number int     `json:"number"`
	Blocks []Block `json:"blocks"`
}

type Document struct {
	Source string `json:"source,omitempty"`
	Pages  []Page `json:"pages_data"`
}

// RawText returns the block's concatenated text, falling back to joining
// lines when the converter did not populate a text field.
func (b Block) RawText() string {
	if b.Text != "" {
		return b.Text
	}
	return strings.Join(b.Lines, "\n")
}

// rawLine accepts either a plain string or a span object carrying a "text"
// key, which older converter outputs emit.
type rawLine string

func (l *rawLine) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = rawLine(strings.TrimSpace(s))
		return nil
	}
	var span struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &span); err != nil {
		return err
	}
	*l = rawLine(strings.TrimSpace(span.Text))
	return nil
}

type rawBlock struct {
	Lines []rawLine `json:"lines"`
	Text  string    `json:"text"`
}

type rawPage struct {
	Number int        `json:"number"`
	Blocks []rawBlock `json:"blocks"`
}

type rawDocument struct {
	Source    string    `json:"source"`
	PagesData []rawPage `json:"pages_data"`
	Pages     []rawPage `json:"pages"`
}

// Parse decodes converter output. Documents carry pages under "pages_data";
// some exports use "pages" instead, so both are accepted.
func Parse(blob []byte) (*Document, error) {
	var outer struct {
		Document *rawDocument `json:"document"`
	}
	raw := &rawDocument{}
	if err := json.Unmarshal(blob, &outer); err == nil && outer.Document != nil {
		raw = outer.Document
	} else if err := json.Unmarshal(blob, raw); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	pages := raw.PagesData
	if len(pages) == 0 {
		pages = raw.Pages
	}

	doc := &Document{Source: raw.Source}
	for i, rp := range pages {
		page := Page{Number: rp.Number}
		if page.Number == 0 {
			page.Number = i + 1
		}
		for _, rb := range rp.Blocks {
			block := Block{Text: rb.Text}
			for _, line := range rb.Lines {
				if line != "" {
					block.Lines = append(block.Lines, string(line))
				}
			}
			if len(block.Lines) > 0 {
				page.Blocks = append(page.Blocks, block)
			}
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func Load(path string) (*Document, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(blob)
}
