package output

import (
	"fmt"
	"io"
	"strings"

	"discount-engine/core/types"
)

const (
	labelWidth  = 50
	amountWidth = 20
)

// CLIFormatter draws a boxed summary table
type CLIFormatter struct{}

// Format implements Formatter
func (CLIFormatter) Format() Format { return FormatCLI }

// Render implements Formatter
func (CLIFormatter) Render(w io.Writer, r *Report) error {
	bw := &boxWriter{w: w}
	rule := strings.Repeat("─", labelWidth+amountWidth+3)

	bw.line("┌" + rule + "┐")
	bw.row("DISCOUNT QUOTE", "")
	bw.line("├" + rule + "┤")

	if r.Quote.Halted {
		bw.row("Order rejected by validation", "")
		bw.row("  at step "+lastStep(r.Quote.Trail), "")
	} else {
		bw.row(fmt.Sprintf("Subtotal (%d x %d)", r.Input.UnitPrice, r.Input.Quantity), money(r.Quote.Subtotal))
		for _, d := range r.Quote.Discounts {
			bw.row("  └─ "+truncate(d.Label, labelWidth-5), "-"+money(d.Amount))
		}
		if r.Quote.Capped {
			bw.row(fmt.Sprintf("  (capped from %s)", money(r.Quote.RawDiscount)), "")
		}
	}

	bw.line("├" + rule + "┤")
	bw.row("TOTAL", money(r.Quote.Total))
	bw.line("└" + rule + "┘")

	market := r.Input.Market.String()
	if market == "" {
		market = "default"
	}
	bw.printf("\nMarket: %s   Rules: %s\n", market, r.Metadata.RulesSource)
	if len(r.Quote.Trail) > 0 {
		bw.printf("Trail: %s\n", strings.Join(r.Quote.Trail, " → "))
	}
	return bw.err
}

// boxWriter keeps the first write error
type boxWriter struct {
	w   io.Writer
	err error
}

func (b *boxWriter) printf(format string, args ...interface{}) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
}

func (b *boxWriter) line(s string) {
	b.printf("%s\n", s)
}

func (b *boxWriter) row(label, amount string) {
	b.printf("│ %-*s %*s │\n", labelWidth, truncate(label, labelWidth), amountWidth, amount)
}

func money(m types.Money) string {
	s := fmt.Sprintf("%d", m)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func lastStep(trail []string) string {
	if len(trail) == 0 {
		return "?"
	}
	return trail[len(trail)-1]
}

func truncate(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
