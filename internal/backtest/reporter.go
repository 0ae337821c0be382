package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GenerateConsoleReport formats metrics for terminal output
func GenerateConsoleReport(m Metrics) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Period: %s to %s\n", m.StartDate.Format("2006-01-02"), m.EndDate.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", m.TotalReturn*100))
	builder.WriteString(fmt.Sprintf("CAGR: %.2f%%\n", m.CAGR*100))
	builder.WriteString(fmt.Sprintf("Volatility: %.2f%%\n", m.Volatility*100))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", m.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", m.MaxDrawdown*100))
	builder.WriteString(fmt.Sprintf("Total Trades: %d\n", m.TotalTrades))
	builder.WriteString(fmt.Sprintf("Win Rate: %s\n", formatPercent(m.WinRate)))
	builder.WriteString(fmt.Sprintf("Profit Factor: %s\n", formatRatio(m.ProfitFactor)))
	builder.WriteString(fmt.Sprintf("Avg Win: %s\n", formatCurrency(m.AverageWin)))
	builder.WriteString(fmt.Sprintf("Avg Loss: %s\n", formatCurrency(m.AverageLoss)))
	return builder.String()
}

// WriteEquityCurveCSV saves the equity curve for spreadsheets
func WriteEquityCurveCSV(curve EquityCurve, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(curve.ToCSV()), 0o644)
}

// WriteMetricsJSON saves the metrics report
func WriteMetricsJSON(m Metrics, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(m.ToJSON()), 0o644)
}

func formatPercent(v *float64) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func formatRatio(v *float64) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatCurrency(v *float64) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", *v)
}
