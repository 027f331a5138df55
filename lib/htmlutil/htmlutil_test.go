package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<table id="nav"><tr><td>Menu</td></tr></table>
<table id="classes">
  <tr><td>Giornale del
      professore</td></tr>
  <tr><td><a href="regclasse.php?classe_id=12">  1A
  </a></td></tr>
</table>
<span _href="regvoti.php?p=1">T1</span>
<span>no href</span>
<span _href="regvoti.php?p=2">T2</span>
</body></html>`

func loadDoc(t testing.TB) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCleanText(t *testing.T) {
	testCases := []struct {
		in, expect string
	}{
		{in: "  1A \n ", expect: "1A"},
		{in: "Giornale del\n      professore", expect: "Giornale del professore"},
		{in: "a\u0000b", expect: "ab"},
		{in: "", expect: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, CleanText(test.in))
	}
}

func TestTableContaining(t *testing.T) {
	doc := loadDoc(t)

	table := TableContaining(doc, "Giornale del professore")
	require.Equal(t, "classes", table.AttrOr("id", ""))

	missing := TableContaining(doc, "Coordinatore")
	require.Equal(t, 0, missing.Length())
}

func TestAttrOnAny(t *testing.T) {
	doc := loadDoc(t)
	require.Equal(
		t,
		[]string{"regvoti.php?p=1", "regvoti.php?p=2"},
		AttrOnAny(doc.Find("span"), "_href"),
	)
}
