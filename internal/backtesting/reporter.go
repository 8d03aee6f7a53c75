package backtesting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guyghost/backtestcore/internal/performance"
)

var (
	successColor = lipgloss.Color("#00FF87")
	errorColor   = lipgloss.Color("#FF5555")
	mutedColor   = lipgloss.Color("#6272A4")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Bold(true)

	gainStyle = lipgloss.NewStyle().
			Foreground(successColor)

	lossStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

const rule = "───────────────────────────────────────────────────────"

// Reporter renders backtest results
type Reporter struct{}

// NewReporter creates a new reporter
func NewReporter() *Reporter {
	return &Reporter{}
}

// GenerateReport generates a formatted text report
func (r *Reporter) GenerateReport(result *BacktestResult) string {
	var sb strings.Builder
	report := result.Report

	sb.WriteString("═══════════════════════════════════════════════════════\n")
	sb.WriteString(titleStyle.Render("           BACKTEST PERFORMANCE REPORT"))
	sb.WriteString("\n═══════════════════════════════════════════════════════\n\n")

	section(&sb, "SUMMARY")
	fmt.Fprintf(&sb, "Run:                  %s (%s)\n", result.RunID, result.Strategy)
	fmt.Fprintf(&sb, "Period:               %s → %s (%s)\n",
		result.StartDate.Format("2006-01-02"),
		result.EndDate.Format("2006-01-02"),
		formatDuration(result.EndDate.Sub(result.StartDate)))
	fmt.Fprintf(&sb, "Initial Capital:      $%s\n", result.InitialCapital.StringFixed(2))
	fmt.Fprintf(&sb, "Final Capital:        $%s\n", result.FinalCapital.StringFixed(2))
	fmt.Fprintf(&sb, "Total Return:         %s\n\n", signedPct(result.TotalReturn))

	section(&sb, "RETURNS")
	fmt.Fprintf(&sb, "Annualized Return:    %s\n", signedPct(report.Returns.Annualized))
	fmt.Fprintf(&sb, "Cumulative Return:    %s\n\n", signedPct(report.Returns.Cumulative))

	section(&sb, "RISK")
	fmt.Fprintf(&sb, "Volatility:           %.2f%%\n", report.Risk.Volatility*100)
	fmt.Fprintf(&sb, "Max Drawdown:         %.2f%%\n", report.Risk.MaxDrawdown*100)
	fmt.Fprintf(&sb, "VaR (%.0f%%):            %.2f%%\n", report.Risk.Confidence*100, report.Risk.VaR*100)
	fmt.Fprintf(&sb, "CVaR (%.0f%%):           %.2f%%\n\n", report.Risk.Confidence*100, report.Risk.CVaR*100)

	section(&sb, "RISK ADJUSTED RETURNS")
	fmt.Fprintf(&sb, "Sharpe Ratio:         %s\n", report.RiskAdjustedReturns.Sharpe)
	fmt.Fprintf(&sb, "Sortino Ratio:        %s\n", report.RiskAdjustedReturns.Sortino)
	fmt.Fprintf(&sb, "Calmar Ratio:         %s\n\n", report.RiskAdjustedReturns.Calmar)

	section(&sb, "TRADING")
	fmt.Fprintf(&sb, "Filled Orders:        %d\n", result.TotalTrades)
	fmt.Fprintf(&sb, "Closing Trades:       %d (%d won, %d lost)\n",
		report.Trading.TotalTrades, report.Trading.WinningTrades, report.Trading.LosingTrades)
	fmt.Fprintf(&sb, "Win Rate:             %.2f%%\n", report.Trading.WinRate*100)
	fmt.Fprintf(&sb, "Profit Factor:        %s\n", report.Trading.ProfitFactor)
	fmt.Fprintf(&sb, "Avg Win / Avg Loss:   $%.2f / $%.2f\n", report.Trading.AvgWin, report.Trading.AvgLoss)
	fmt.Fprintf(&sb, "Total Commission:     $%.2f\n\n", report.Trading.TotalCommission)

	if report.BenchmarkComparison.Available {
		b := report.BenchmarkComparison
		section(&sb, "BENCHMARK")
		fmt.Fprintf(&sb, "Benchmark Return:     %s\n", signedPct(b.BenchmarkReturn))
		fmt.Fprintf(&sb, "Alpha / Beta:         %.4f / %.4f\n", b.Alpha, b.Beta)
		fmt.Fprintf(&sb, "Information Ratio:    %.2f\n", b.InformationRatio)
		fmt.Fprintf(&sb, "Tracking Error:       %.2f%%\n\n", b.TrackingError*100)
	}

	if len(report.TopDrawdowns) > 0 {
		section(&sb, fmt.Sprintf("TOP %d DRAWDOWNS", len(report.TopDrawdowns)))
		for i, dd := range report.TopDrawdowns {
			sb.WriteString(formatDrawdown(i+1, dd))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("═══════════════════════════════════════════════════════\n")
	return sb.String()
}

// GenerateSummary generates a short summary
func (r *Reporter) GenerateSummary(result *BacktestResult) string {
	return fmt.Sprintf(
		"Return: %.2f%% | Orders: %d | Win Rate: %.2f%% | Max DD: %.2f%% | Sharpe: %.2f",
		result.TotalReturn*100,
		result.TotalTrades,
		result.WinRate*100,
		result.MaxDrawdown*100,
		result.SharpeRatio,
	)
}

// GenerateTradeLog generates the log of trades that realized P&L
func (r *Reporter) GenerateTradeLog(result *BacktestResult) string {
	var sb strings.Builder

	section(&sb, "TRADE LOG")
	if len(result.Trades) == 0 {
		sb.WriteString("no closing trades\n")
		return sb.String()
	}
	for _, trade := range result.Trades {
		line := fmt.Sprintf("%s %-8s %-4s qty=%.4f @ $%.2f pnl=$%.2f cum=$%.2f",
			trade.Timestamp.Format("2006-01-02 15:04"),
			trade.Symbol,
			trade.Side,
			trade.Quantity,
			trade.Price,
			trade.PnL,
			trade.CumulativePnL,
		)
		if trade.PnL < 0 {
			line = lossStyle.Render(line)
		} else {
			line = gainStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// WriteJSON writes the result, report included, as indented JSON
func (r *Reporter) WriteJSON(w io.Writer, result *BacktestResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// SaveJSON writes the result to path
func (r *Reporter) SaveJSON(path string, result *BacktestResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	return r.WriteJSON(file, result)
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(sectionStyle.Render(title))
	sb.WriteString("\n" + rule + "\n")
}

func signedPct(v float64) string {
	s := fmt.Sprintf("%+.2f%%", v*100)
	if v < 0 {
		return lossStyle.Render(s)
	}
	return gainStyle.Render(s)
}

func formatDrawdown(rank int, dd performance.DrawdownPeriod) string {
	recovery := "not recovered"
	if dd.Recovered() {
		recovery = "recovered " + dd.RecoveryDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%d. %.2f%% from %s, trough %s, %s (%s)\n",
		rank,
		dd.DrawdownPct*100,
		dd.StartDate.Format("2006-01-02"),
		dd.TroughDate.Format("2006-01-02"),
		recovery,
		formatDuration(dd.Duration),
	)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd%dh", days, hours)
}
