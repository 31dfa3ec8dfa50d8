package smartlab

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"bondradar-backend/lib/htmlutil"
	"bondradar-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	// the page structure changed out from under us, there is nothing a
	// caller can salvage from this batch
	ErrNoBondTable   = errors.New("smartlab: no table matches the bond listing markers")
	ErrNoYieldColumn = errors.New("smartlab: bond listing table has no yield column")
)

// bond name anchors carry a title attribute that ends with the ISIN in
// parentheses, e.g. title="ОФЗ 26238 (SU26238RMFS4)"
var isinTitleRegex = regexp.MustCompile(`\s\(([^)]+)\)$`)

type columnIndex struct {
	name     int
	yield    int
	rating   int
	maturity int
	offer    int
}

// a row must cover every resolved column to be usable. the offer column
// sits at the far right and is guarded separately so its absence never
// costs a row.
func (c columnIndex) required() int {
	required := c.yield
	for _, idx := range []int{c.name, c.rating, c.maturity} {
		if idx > required {
			required = idx
		}
	}
	return required
}

// Extract parses the bond listing table out of raw page markup.
//
// Structural problems (no matching table, no yield column) fail the whole
// call. Anything wrong with an individual row or cell degrades to
// sentinel values instead: remote structure changes rarely, but cell
// content is noisy, and one bad row must not discard a good batch.
//
// now anchors offer-date evaluation; offers dated in the past normalize
// to Unknown.
func Extract(markup string, m Matchers, now time.Time) ([]Bond, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	table := findBondTable(doc, m)
	if table == nil {
		return nil, ErrNoBondTable
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, ErrNoBondTable
	}

	cols, err := resolveColumns(rows.First(), m)
	if err != nil {
		return nil, err
	}

	var bonds []Bond
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() <= cols.required() {
			return
		}
		bonds = append(bonds, extractRow(cells, cols, now))
	})

	return bonds, nil
}

// markup-stripped text of a selection, straight off its parsed nodes
func selectionText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		b.WriteString(htmlutil.GetText(node))
	}
	return b.String()
}

// the listing page holds several tables, the bond one is fingerprinted
// by containing both the yield and the rating marker
func findBondTable(doc *goquery.Document, m Matchers) *goquery.Selection {
	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if m.Yield(text) && m.Rating(text) {
			table = sel
			return false
		}
		return true
	})
	return table
}

func resolveColumns(headerRow *goquery.Selection, m Matchers) (columnIndex, error) {
	var headers []string
	headerRow.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, selectionText(th))
	})

	cols := columnIndex{
		name:     firstMatch(headers, m.Name),
		yield:    firstMatch(headers, m.Yield),
		rating:   firstMatch(headers, m.Rating),
		maturity: firstMatch(headers, m.Maturity),
		offer:    firstMatch(headers, m.Offer),
	}
	if cols.yield < 0 {
		return columnIndex{}, ErrNoYieldColumn
	}
	return cols, nil
}

func firstMatch(headers []string, matcher textutil.Matcher) int {
	for i, h := range headers {
		if matcher(h) {
			return i
		}
	}
	return -1
}

func extractRow(cells *goquery.Selection, cols columnIndex, now time.Time) Bond {
	bond := Bond{
		ISIN:            Unknown,
		Rating:          Unknown,
		MaturityDisplay: "N/A",
		OfferDate:       Unknown,
	}

	if cols.name >= 0 {
		nameCell := cells.Eq(cols.name)
		anchor := nameCell.Find("a[title]").First()
		groups := isinTitleRegex.FindStringSubmatch(strings.TrimSpace(anchor.AttrOr("title", "")))
		if groups != nil {
			bond.ISIN = groups[1]
			bond.Name = htmlutil.CleanText(selectionText(anchor))
		} else {
			bond.Name = htmlutil.CleanText(selectionText(nameCell))
		}
	}

	yield, err := textutil.ParseDecimal(selectionText(cells.Eq(cols.yield)))
	if err == nil {
		bond.Yield = yield
	}

	if cols.rating >= 0 {
		bond.Rating = htmlutil.CleanText(selectionText(cells.Eq(cols.rating)))
	}

	if cols.maturity >= 0 {
		years, err := textutil.ParseDecimal(selectionText(cells.Eq(cols.maturity)))
		if err == nil {
			bond.MaturityYears = years
			bond.MaturityDisplay = fmt.Sprintf("%.1f years", years)
		}
	}

	if cols.offer >= 0 && cols.offer < cells.Length() {
		text := htmlutil.CleanText(selectionText(cells.Eq(cols.offer)))
		if text != "" && text != "-" {
			offerAt, err := textutil.ParseDayMonthYear(text, now.Location())
			if err == nil {
				if days := daysUntil(now, offerAt); days > 0 {
					years := float64(days) / 365.0
					bond.OfferDate = text
					bond.YearsToOffer = &years
				}
			}
		}
	}

	return bond
}

func daysUntil(now, day time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(math.Round(day.Sub(today).Hours() / 24))
}
