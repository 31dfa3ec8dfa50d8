package bonds

import (
	"fmt"
	"html"
	"strings"

	"bondradar-backend/lib/scrapers/smartlab"

	"github.com/jedib0t/go-pretty/v6/table"
)

// both renderers are pure: the same ordered input always produces
// byte-identical output

// PlainTable renders ranked bonds as an aligned text table, with columns
// in fixed order and missing values shown as N/A.
func PlainTable(bonds []smartlab.Bond) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ISIN", "Name", "Yield", "Rating", "Maturity", "Offer date", "To offer"})
	for _, bond := range bonds {
		t.AppendRow(table.Row{
			displayOr(bond.ISIN),
			displayOr(bond.Name),
			fmt.Sprintf("%.2f%%", bond.Yield),
			displayOr(bond.Rating),
			bond.MaturityDisplay,
			displayOr(bond.OfferDate),
			yearsToOfferDisplay(bond),
		})
	}
	return t.Render()
}

// TelegramMessage renders ranked bonds as one HTML parse-mode block per
// record, medals for the top three ranks, each known ISIN deep-linked to
// its T-Invest page.
func TelegramMessage(bonds []smartlab.Bond) string {
	if len(bonds) == 0 {
		return "Could not load any bond data."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>🔝 Top %d bonds by yield to maturity:</b>\n\n", len(bonds))

	for i, bond := range bonds {
		name := html.EscapeString(displayOr(bond.Name))
		if bond.ISIN == smartlab.Unknown {
			fmt.Fprintf(&b, "%s <b>%d. %s</b>\n", positionEmoji(i+1), i+1, name)
		} else {
			fmt.Fprintf(
				&b, "%s <b>%d. <a href='https://www.tinkoff.ru/invest/bonds/%s/'>%s</a></b> (%s)\n",
				positionEmoji(i+1), i+1, bond.ISIN, name, bond.ISIN,
			)
		}
		fmt.Fprintf(&b, "   📈 Yield: <b>%.2f%%</b>\n", bond.Yield)
		fmt.Fprintf(&b, "   ⭐️ Rating: %s\n", html.EscapeString(displayOr(bond.Rating)))
		fmt.Fprintf(&b, "   🗓 Maturity: %s\n", bond.MaturityDisplay)
		if bond.YearsToOffer != nil {
			fmt.Fprintf(&b, "   📅 To offer: %.1f years (%s)\n", *bond.YearsToOffer, bond.OfferDate)
		}
		b.WriteString("\n")
	}

	b.WriteString("<i>Data from smart-lab.ru</i>")
	return b.String()
}

func positionEmoji(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "🏅"
	}
}

func displayOr(value string) string {
	if value == "" || value == smartlab.Unknown {
		return "N/A"
	}
	return value
}

func yearsToOfferDisplay(bond smartlab.Bond) string {
	if bond.YearsToOffer == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f years", *bond.YearsToOffer)
}
