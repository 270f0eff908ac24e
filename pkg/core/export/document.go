package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Table is one <table> flattened onto a rectangular grid.
// Spanned cells repeat the text of the cell that spans them.
type Table struct {
	Name   string     // "Table_<n>", n counting every <table> in the document
	Header [][]string // leading header rows (th-only rows or thead)
	Rows   [][]string
}

// Width returns the number of grid columns.
func (t Table) Width() int {
	if len(t.Header) > 0 {
		return len(t.Header[0])
	}
	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}
	return 0
}

// FirstColumn returns the first cell of every data row.
func (t Table) FirstColumn() []string {
	col := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) == 0 {
			col = append(col, "")
			continue
		}
		col = append(col, row[0])
	}
	return col
}

// TextBlock is the stripped text of one heading, paragraph or div.
type TextBlock struct {
	Tag  string
	Text string
}

// Document is the content extracted from one report page.
type Document struct {
	Tables []Table
	Text   []TextBlock
}

// ParseDocument extracts every table and text block from an HTML report.
func ParseDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse report HTML: %w", err)
	}

	out := &Document{}
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		t, ok := parseTable(table)
		if !ok {
			return
		}
		t.Name = "Table_" + strconv.Itoa(i+1)
		out.Tables = append(out.Tables, t)
	})

	doc.Find("h1, h2, h3, h4, p, div").Each(func(_ int, s *goquery.Selection) {
		if text := strippedText(s); text != "" {
			out.Text = append(out.Text, TextBlock{Tag: goquery.NodeName(s), Text: text})
		}
	})

	return out, nil
}

// Span limits applied by HTML parsers; larger values are clamped.
const (
	maxColspan = 1000
	maxRowspan = 65534
)

type gridCell struct {
	text   string
	header bool
	rowEnd int // rows covered by a rowspan starting above
}

// parseTable lays the table's own rows (not those of nested tables) onto a virtual grid
// so colspan and rowspan keep columns aligned.
func parseTable(table *goquery.Selection) (Table, bool) {
	self := table.Get(0)
	rows := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").Get(0) == self
	})
	if rows.Length() == 0 {
		return Table{}, false
	}

	rowCount := rows.Length()
	width := 0
	rows.Each(func(_ int, tr *goquery.Selection) {
		cols := 0
		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			cols += span(cell, "colspan", maxColspan)
		})
		if cols > width {
			width = cols
		}
	})

	// Rowspans can push cells past the widest row's own count.
	grid := make([][]*gridCell, rowCount)
	inThead := make([]bool, rowCount)
	rows.Each(func(r int, tr *goquery.Selection) {
		inThead[r] = tr.ParentsFiltered("thead").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Closest("table").Get(0) == self
		}).Length() > 0

		col := 0
		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			for col < len(grid[r]) && grid[r][col] != nil {
				col++
			}
			colspan := span(cell, "colspan", maxColspan)
			rowspan := span(cell, "rowspan", maxRowspan)
			c := &gridCell{
				text:   cellText(cell),
				header: goquery.NodeName(cell) == "th",
			}
			for dr := 0; dr < rowspan && r+dr < rowCount; dr++ {
				for dc := 0; dc < colspan; dc++ {
					place(grid, r+dr, col+dc, c)
				}
			}
			col += colspan
		})
	})

	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return Table{}, false
	}

	// Header rows lead the table: thead rows or rows made only of th cells.
	headerRows := 0
	for r, row := range grid {
		if inThead[r] || allHeader(row) {
			headerRows++
			continue
		}
		break
	}

	t := Table{}
	for r, row := range grid {
		cells := make([]string, width)
		for c := 0; c < width; c++ {
			if c < len(row) && row[c] != nil {
				cells[c] = row[c].text
			}
		}
		if r < headerRows {
			t.Header = append(t.Header, cells)
		} else {
			t.Rows = append(t.Rows, cells)
		}
	}
	return t, true
}

func place(grid [][]*gridCell, r, c int, cell *gridCell) {
	for len(grid[r]) <= c {
		grid[r] = append(grid[r], nil)
	}
	if grid[r][c] == nil {
		grid[r][c] = cell
	}
}

func allHeader(row []*gridCell) bool {
	if len(row) == 0 {
		return false
	}
	for _, c := range row {
		if c == nil || !c.header {
			return false
		}
	}
	return true
}

func span(cell *goquery.Selection, attr string, limit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell.AttrOr(attr, "1")))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, limit)
}

// cellText collapses all whitespace runs to single spaces.
func cellText(cell *goquery.Selection) string {
	return strings.Join(strings.Fields(cell.Text()), " ")
}

// strippedText concatenates every descendant text node, each trimmed, skipping empty ones.
func strippedText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &sb)
	}
	return sb.String()
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
