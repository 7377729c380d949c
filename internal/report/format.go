package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"eve-arbscan/internal/engine"
)

// ISK formats an amount rounded to whole ISK with thousands separators.
func ISK(v float64) string {
	return group(decimal.NewFromFloat(v).Round(0).String())
}

// Percent formats a ROI with one decimal.
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}

// Volume formats a daily volume with one decimal.
func Volume(v float64) string {
	return group(decimal.NewFromFloat(v).StringFixed(1))
}

func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

// Table renders the top n opportunities as an aligned text table.
// n <= 0 renders all.
func Table(w io.Writer, opps []engine.Opportunity, n int) error {
	if n <= 0 || n > len(opps) {
		n = len(opps)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(Header, "\t")+"\t")
	for _, o := range opps[:n] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			o.Name, o.Tag, ISK(o.BuyPrice), ISK(o.SellPrice), ISK(o.Profit),
			Percent(o.ROI), Volume(o.DailyVolume), ISK(o.DailyProfit))
	}
	return tw.Flush()
}
