package report

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/yuin/goldmark"

	"discount-extractor/internal/types"
)

// Output file names, overwritten on every run.
const (
	JSONFile     = "data.json"
	MarkdownFile = "data.md"
	HTMLFile     = "data.html"
)

// Report holds two projections of the same record set: page order for the
// JSON artifact and best-discount-first for the Markdown artifact.
type Report struct {
	PageOrdered    []types.DiscountRecord
	DiscountRanked []types.DiscountRecord
	Currency       string
}

// Build sorts records into both views. The input slice is not modified.
func Build(records []types.DiscountRecord, currency string) *Report {
	ranked := slices.Clone(records)
	slices.SortStableFunc(ranked, func(a, b types.DiscountRecord) int {
		if c := cmp.Compare(b.DiscountDiff, a.DiscountDiff); c != 0 {
			return c
		}
		return comparePosition(a, b)
	})

	paged := slices.Clone(records)
	slices.SortStableFunc(paged, comparePosition)

	if ranked == nil {
		ranked = []types.DiscountRecord{}
		paged = []types.DiscountRecord{}
	}

	return &Report{
		PageOrdered:    paged,
		DiscountRanked: ranked,
		Currency:       currency,
	}
}

func comparePosition(a, b types.DiscountRecord) int {
	if c := cmp.Compare(a.Page.Number, b.Page.Number); c != 0 {
		return c
	}
	return cmp.Compare(a.Page.Order, b.Page.Order)
}

// JSON renders the page-ordered view indented with four spaces.
func (r *Report) JSON() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(r.PageOrdered); err != nil {
		return nil, fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// Markdown renders one section per record of the discount-ranked view.
func (r *Report) Markdown() []byte {
	sections := make([]string, 0, len(r.DiscountRanked))
	for _, item := range r.DiscountRanked {
		var b strings.Builder
		fmt.Fprintf(&b, "### %s", item.Title)
		if item.HasImage() {
			fmt.Fprintf(&b, "\n\n![%s](%s)", item.Title, item.ImageURL)
		}
		fmt.Fprintf(&b, "\n\n- [Link](%s)\n", item.Link)
		fmt.Fprintf(&b, "- Base Price: %s %s\n", item.BasePrice, r.Currency)
		fmt.Fprintf(&b, "- Discount Price: %s %s\n", item.DiscountPrice, r.Currency)
		fmt.Fprintf(&b, "- Discount Diff: %s %s\n\n", item.DiscountDiff, r.Currency)
		sections = append(sections, b.String())
	}
	return []byte(strings.Join(sections, "\n"))
}

// HTML converts the Markdown report to an HTML document.
func (r *Report) HTML() ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert(r.Markdown(), &body); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Discounts</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// Summary prints the top discounts as a table. top <= 0 prints all.
func (r *Report) Summary(w io.Writer, top int) {
	rows := r.DiscountRanked
	if top > 0 && top < len(rows) {
		rows = rows[:top]
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Page", "Title", "Base", "Discount", "Diff"})
	for i, item := range rows {
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%d/%d", item.Page.Number, item.Page.Order),
			item.Title,
			item.BasePrice.String(),
			item.DiscountPrice.String(),
			item.DiscountDiff.String(),
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d records", len(r.DiscountRanked)), "", "", r.Currency})
	t.Render()
}

// Files lists the paths written by Write.
type Files struct {
	JSON     string
	Markdown string
	HTML     string
}

// Write renders every artifact first and only then writes them to dir, so a
// rendering failure leaves the previous files untouched.
func (r *Report) Write(dir string, withHTML bool) (Files, error) {
	jsonData, err := r.JSON()
	if err != nil {
		return Files{}, err
	}
	markdown := r.Markdown()

	var htmlData []byte
	if withHTML {
		if htmlData, err = r.HTML(); err != nil {
			return Files{}, err
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Files{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := Files{
		JSON:     filepath.Join(dir, JSONFile),
		Markdown: filepath.Join(dir, MarkdownFile),
	}
	if err := writeToFile(files.JSON, jsonData); err != nil {
		return Files{}, err
	}
	if err := writeToFile(files.Markdown, markdown); err != nil {
		return Files{}, err
	}
	if withHTML {
		files.HTML = filepath.Join(dir, HTMLFile)
		if err := writeToFile(files.HTML, htmlData); err != nil {
			return Files{}, err
		}
	}

	return files, nil
}

// writeToFile writes data to a file
func writeToFile(filename string, data []byte) error {
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
