package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statementHTML = `<html><body>
<h2>CONSOLIDATED BALANCE SHEETS - USD ($) $ in Millions</h2>
<table class="report">
  <tr><th rowspan="2">Balance Sheet</th><th colspan="2">12 Months Ended</th></tr>
  <tr><th>Dec. 31, 2023</th><th>Dec. 31, 2022</th></tr>
  <tr><td>Cash</td><td>$ 24,862</td><td>$ 25,134</td></tr>
  <tr><td>Net loss</td><td>(1,981)</td><td>-</td></tr>
</table>
<div class="defref">
<table>
  <tr><td>Name:</td><td>us-gaap_Cash</td></tr>
  <tr><td>Namespace Prefix:</td><td>us-gaap_</td></tr>
  <tr><td>Data Type:</td><td>xbrli:monetaryItemType</td></tr>
  <tr><td>Balance Type:</td><td>debit</td></tr>
  <tr><td>Period Type:</td><td>instant</td></tr>
</table>
</div>
<p>  Amounts in <b>millions</b>. </p>
<p>   </p>
</body></html>`

func TestParseDocumentTables(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(statementHTML))
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)

	bs := doc.Tables[0]
	assert.Equal(t, "Table_1", bs.Name)
	assert.Equal(t, [][]string{
		{"Balance Sheet", "12 Months Ended", "12 Months Ended"},
		{"Balance Sheet", "Dec. 31, 2023", "Dec. 31, 2022"},
	}, bs.Header)
	assert.Equal(t, [][]string{
		{"Cash", "$ 24,862", "$ 25,134"},
		{"Net loss", "(1,981)", "-"},
	}, bs.Rows)

	def := doc.Tables[1]
	assert.Equal(t, "Table_2", def.Name)
	assert.Empty(t, def.Header)
	assert.True(t, IsDefinitionTable(def))
	assert.False(t, IsDefinitionTable(bs))
}

func TestParseDocumentText(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(statementHTML))
	require.NoError(t, err)

	var tags []string
	for _, b := range doc.Text {
		tags = append(tags, b.Tag)
	}
	// The div wraps the definition table so it yields that table's text.
	assert.Equal(t, []string{"h2", "div", "p"}, tags)
	assert.Equal(t, "CONSOLIDATED BALANCE SHEETS - USD ($) $ in Millions", doc.Text[0].Text)
	assert.Equal(t, "Amounts inmillions.", doc.Text[2].Text)
}

func TestParseTableNestedTablesAreSeparate(t *testing.T) {
	html := `<table>
  <tr><td>outer</td><td><table><tr><td>inner a</td><td>inner b</td></tr></table></td></tr>
</table>`
	doc, err := ParseDocument(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)

	assert.Equal(t, "Table_1", doc.Tables[0].Name)
	require.Len(t, doc.Tables[0].Rows, 1)
	assert.Len(t, doc.Tables[0].Rows[0], 2)
	assert.Equal(t, "outer", doc.Tables[0].Rows[0][0])

	assert.Equal(t, "Table_2", doc.Tables[1].Name)
	assert.Equal(t, [][]string{{"inner a", "inner b"}}, doc.Tables[1].Rows)
}

func TestParseTableSkipsEmptyTables(t *testing.T) {
	html := `<table></table><table><tr><td>x</td></tr></table>`
	doc, err := ParseDocument(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "Table_2", doc.Tables[0].Name)
}

func TestParseTableRowspanShiftsCells(t *testing.T) {
	html := `<table>
  <tr><td rowspan="2">A</td><td>B</td><td>C</td></tr>
  <tr><td>D</td><td>E</td></tr>
  <tr><td colspan="3">F</td></tr>
</table>`
	doc, err := ParseDocument(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, [][]string{
		{"A", "B", "C"},
		{"A", "D", "E"},
		{"F", "F", "F"},
	}, doc.Tables[0].Rows)
}

func TestParseTableTheadIsHeader(t *testing.T) {
	html := `<table><thead><tr><td>Item</td><td>Value</td></tr></thead>
<tbody><tr><th>Revenue</th><td>10</td></tr></tbody></table>`
	doc, err := ParseDocument(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, [][]string{{"Item", "Value"}}, doc.Tables[0].Header)
	assert.Equal(t, [][]string{{"Revenue", "10"}}, doc.Tables[0].Rows)
}

func TestParseTableClampsSpans(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(
		`<table><tr><td colspan="2000000">a</td><td rowspan="100000000">b</td></tr><tr><td>c</td></tr></table>`))
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)

	tbl := doc.Tables[0]
	assert.Equal(t, maxColspan+1, tbl.Width())
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "b", tbl.Rows[1][maxColspan])
	assert.Equal(t, "c", tbl.Rows[1][0])
}

func TestIsDefinitionTableExactMatch(t *testing.T) {
	rows := func(first ...string) Table {
		tbl := Table{}
		for _, f := range first {
			tbl.Rows = append(tbl.Rows, []string{f, "v"})
		}
		return tbl
	}

	assert.True(t, IsDefinitionTable(rows("Name:", "Namespace Prefix:", "Data Type:", "Balance Type:", "Period Type:")))
	assert.False(t, IsDefinitionTable(rows("Name:", "Namespace Prefix:", "Data Type:", "Balance Type:")))
	assert.False(t, IsDefinitionTable(rows("Name:", "Namespace Prefix:", "Data Type:", "Balance Type:", "Period Type:", "Definition:")))
	assert.False(t, IsDefinitionTable(rows("Namespace Prefix:", "Name:", "Data Type:", "Balance Type:", "Period Type:")))
	assert.False(t, IsDefinitionTable(rows("name:", "Namespace Prefix:", "Data Type:", "Balance Type:", "Period Type:")))
	assert.False(t, IsDefinitionTable(Table{}))
}
