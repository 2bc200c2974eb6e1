// Package report renders read-only projections of a trading session for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"sentibot-go/internal/engine"
	"sentibot-go/internal/execution"
	"sentibot-go/internal/paper"
)

// WriteTrades prints the trade history as a table: time, price, action, balance, position.
func WriteTrades(w io.Writer, asset string, trades []paper.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "no trades executed")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Time", "Price (USDT)", "Action", "Balance (USD)", asset+" Position")
	for _, tr := range trades {
		action := "Buy"
		if tr.Side == execution.Sell {
			action = "Sell"
		}
		table.Append(
			tr.Ts.Format("15:04:05"),
			fmt.Sprintf("$%.2f", tr.Price),
			action,
			fmt.Sprintf("$%.2f", tr.CashAfter),
			fmt.Sprintf("%.6f %s", tr.PositionAfter, asset),
		)
	}
	table.Render()
}

// StatusLine is the one-line portfolio and score summary logged or printed per tick.
func StatusLine(snap engine.SessionSnapshot) string {
	acct := snap.Account
	d := snap.LastDecision

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s $%.2f | cash $%.2f | pos %.6f %s | value $%.2f | profit %.2f%%",
		snap.Symbol, snap.LastPrice, acct.Cash, acct.Position, acct.Asset, acct.Equity, acct.ProfitPct)
	fmt.Fprintf(&sb, " | sma %.2f fg %.0f sent %.0f | buy %.2f sell %.2f",
		d.Scores.SMAScore, d.Scores.FearGreedScore, d.Scores.SentimentScore, d.Scores.BuyScore, d.Scores.SellScore)
	if fg, ok := snap.FearGreed.Get(); ok {
		fmt.Fprintf(&sb, " | F&G %d (%s)", fg.Value, fg.Classification)
	} else {
		sb.WriteString(" | F&G n/a")
	}
	if d.Reason != "" {
		fmt.Fprintf(&sb, " | %s %s", d.Action, d.Reason)
	}
	return sb.String()
}

// WriteSummary prints the closing account state followed by the trade table.
func WriteSummary(w io.Writer, snap engine.SessionSnapshot) {
	acct := snap.Account
	fmt.Fprintf(w, "\n--- Session Summary (%s) ---\n", snap.Symbol)
	fmt.Fprintf(w, "Ticks processed: %d\n", snap.Ticks)
	fmt.Fprintf(w, "Starting balance: $%.2f\n", acct.StartingCash)
	fmt.Fprintf(w, "USD balance: $%.2f\n", acct.Cash)
	fmt.Fprintf(w, "%s position: %.6f\n", acct.Asset, acct.Position)
	fmt.Fprintf(w, "Portfolio value: $%.2f\n", acct.Equity)
	fmt.Fprintf(w, "Profit: %.2f%%\n", acct.ProfitPct)
	fmt.Fprintf(w, "Last trade: %s\n", acct.LastTrade)
	WriteTrades(w, acct.Asset, snap.Trades)
}
