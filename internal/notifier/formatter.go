package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"InsiderSentinel/internal/model"
)

// maxListedTrades caps the trade lines in a single Telegram message.
const maxListedTrades = 10

// FormatRunSummary formats a finished batch run into a Telegram message.
func FormatRunSummary(sum *model.RunSummary, trades []model.ClosedTrade) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>InsiderSentinel run</b> | %s\n", sum.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("<code>%s</code>\n\n", sum.RunID))

	b.WriteString(fmt.Sprintf("Tickers: %d (failed %d)\n", sum.Tickers, sum.Failed))
	b.WriteString(fmt.Sprintf("Closed trades: %d | wins %d\n", sum.Trades, sum.Wins))
	if sum.Trades > 0 {
		b.WriteString(fmt.Sprintf("Win rate: %.1f%% | avg return %+.2f%%\n", sum.WinRate, sum.AvgReturnPct))
	}

	if len(trades) > 0 {
		b.WriteString("\n📈 <b>Exits by reason:</b>\n")
		counts := make(map[model.ExitReason]int)
		for _, t := range trades {
			counts[t.Reason]++
		}
		reasons := make([]string, 0, len(counts))
		for r := range counts {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			b.WriteString(fmt.Sprintf("  %s: %d\n", r, counts[model.ExitReason(r)]))
		}

		b.WriteString("\n💰 <b>Latest trades:</b>\n")
		start := 0
		if len(trades) > maxListedTrades {
			start = len(trades) - maxListedTrades
		}
		for _, t := range trades[start:] {
			b.WriteString(FormatTrade(t))
		}
		if start > 0 {
			b.WriteString(fmt.Sprintf("  … %d more\n", start))
		}
	}

	if len(sum.Errors) > 0 {
		b.WriteString("\n⚠️ <b>Failures:</b>\n")
		for i, e := range sum.Errors {
			if i == maxListedTrades {
				b.WriteString(fmt.Sprintf("  … %d more\n", len(sum.Errors)-i))
				break
			}
			b.WriteString(fmt.Sprintf("  %s\n", html.EscapeString(e)))
		}
	}
	return b.String()
}

// FormatTrade renders one closed trade as a single line.
func FormatTrade(t model.ClosedTrade) string {
	icon := "🔴"
	if t.ReturnPct > 0 {
		icon = "🟢"
	}
	return fmt.Sprintf("  %s %s %s→%s %.2f→%.2f (%+.2f%%) %s/%s\n",
		icon, t.Ticker,
		t.EntryDate.Format("01-02"), t.ExitDate.Format("01-02"),
		t.EntryPrice, t.ExitPrice, t.ReturnPct,
		t.Tier, t.Reason)
}

// FormatRunState formats the persisted run state for display.
func FormatRunState(state *model.RunState, running bool) string {
	var b strings.Builder
	b.WriteString("📦 <b>Sentinel status</b>\n\n")
	b.WriteString(fmt.Sprintf("Running now: %v\n", running))
	b.WriteString(fmt.Sprintf("Total runs: %d\n", state.TotalRuns))
	b.WriteString(fmt.Sprintf("Total closed trades: %d\n", state.TotalTrades))
	if state.LastRun != nil {
		b.WriteString(fmt.Sprintf("Last run: %s (%d trades, win rate %.1f%%)\n",
			state.LastRun.FinishedAt.Format("2006-01-02 15:04"), state.LastRun.Trades, state.LastRun.WinRate))
	}
	if state.LastError != "" {
		b.WriteString(fmt.Sprintf("Last error: %s\n", html.EscapeString(state.LastError)))
	}
	if !state.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", state.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n• /run start a batch now\n• /last show the last run summary\n• /status show sentinel status"
}
