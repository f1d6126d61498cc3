package htmlpreview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/jschless/armymarkdown/internal/parser"
)

const source = `ORGANIZATION_NAME = 4th Engineer Battalion
ORGANIZATION_STREET_ADDRESS = 588 Wetzel Road
ORGANIZATION_CITY_STATE_ZIP = Colorado Springs, CO 80904
OFFICE_SYMBOL = ABC-DEF-GH
AUTHOR = Joseph C. Schlessinger
RANK = 1LT
BRANCH = EN
TITLE = Platoon Leader
DATE = 15 January 2025
SUBJECT = Fish & <Chips>
ENCLOSURE1 = Range card
---
- See **Encl 1**.
    - Sub a.
    - Sub b.
    | Item | Qty |
    | Radio | 4 |
- Point of contact is the undersigned.
`

func TestString(t *testing.T) {
	doc, err := parser.Parse(source)
	require.NoError(t, err)

	out, err := String(doc)
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="memo">`)
	assert.Contains(t, out, "DEPARTMENT OF THE ARMY")
	assert.Contains(t, out, "4TH ENGINEER BATTALION")
	assert.Contains(t, out, "MEMORANDUM FOR RECORD")
	assert.Contains(t, out, "SUBJECT: Fish &amp; &lt;Chips&gt;")
	assert.Contains(t, out, `data-ref="1.a"`)
	assert.Contains(t, out, `<span class="label">a.</span>`)
	assert.Contains(t, out, "<strong>Encl 1</strong>")
	assert.Contains(t, out, "<th>Item</th>")
	assert.Contains(t, out, "<td>Radio</td>")
	assert.Contains(t, out, "JOSEPH C. SCHLESSINGER")
	assert.Contains(t, out, "1LT, EN")
	assert.Contains(t, out, "<li>Range card</li>")

	// Output must be well-formed enough to parse back.
	_, err = html.Parse(strings.NewReader(out))
	assert.NoError(t, err)
}

func TestMemoLines(t *testing.T) {
	thru := `THRU_ORGANIZATION_NAME = Division
FOR_ORGANIZATION_NAME1 = 1st Brigade
FOR_ORGANIZATION_NAME2 = 2nd Brigade
---
`
	doc, err := parser.Parse(thru)
	require.NoError(t, err)
	assert.Equal(t, []string{"MEMORANDUM THRU Division", "FOR", "1st Brigade", "2nd Brigade"}, MemoLines(doc))

	multi := "FOR_ORGANIZATION_NAME1 = A\nFOR_ORGANIZATION_NAME2 = B\n---\n"
	doc, err = parser.Parse(multi)
	require.NoError(t, err)
	assert.Equal(t, []string{"MEMORANDUM FOR SEE DISTRIBUTION", "A", "B"}, MemoLines(doc))
}
