package notifier

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/recorder"
)

// FormatClosedSummary formats the closed-trade statistics.
func FormatClosedSummary(s model.ClosedTradeSummary) string {
	var b strings.Builder
	b.WriteString("📈 <b>已平仓交易</b>\n")
	if s.Empty {
		b.WriteString("  无已平仓交易 (no closed trades)\n")
		if s.OpenTrades > 0 {
			b.WriteString(fmt.Sprintf("  未平仓: %d\n", s.OpenTrades))
		}
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  有效交易次数: %d (未平仓 %d)\n", s.ClosedTrades, s.OpenTrades))
	b.WriteString(fmt.Sprintf("  平均买入/卖出: %.2f / %.2f\n", s.AvgBuyPrice, s.AvgSellPrice))
	b.WriteString(fmt.Sprintf("  平均收益率: %+.2f%%\n", s.AvgProfitPct))
	b.WriteString(fmt.Sprintf("  最大收益: %+.2f%% | 最小收益: %+.2f%%\n", s.MaxProfitPct, s.MinProfitPct))
	b.WriteString(fmt.Sprintf("  胜率: %.2f%% (%d/%d)\n", s.WinRate*100, s.Wins, s.ClosedTrades))
	return b.String()
}

// FormatPostBuyReport formats the fixed-horizon post-buy analysis.
func FormatPostBuyReport(r model.PostBuyReport) string {
	return formatPostBuy(r, len(r.Trades))
}

func formatPostBuy(r model.PostBuyReport, analysed int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏱ <b>买入后 %d 日持有分析</b>\n", r.Window))
	if r.Empty {
		b.WriteString("  无可分析的买入信号\n")
		if r.Skipped > 0 {
			b.WriteString(fmt.Sprintf("  数据不足跳过: %d\n", r.Skipped))
		}
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  分析笔数: %d (数据不足跳过 %d)\n", analysed, r.Skipped))
	b.WriteString(fmt.Sprintf("  胜率: %.2f%% (%d胜 / %d负)\n", r.WinRate*100, r.Wins, r.Losses))
	b.WriteString(fmt.Sprintf("  平均持有收益: %+.2f%%\n", r.AvgHPR*100))
	b.WriteString(fmt.Sprintf("  平均盈利: %+.2f%% | 平均亏损: %s\n", r.AvgHPRWin*100, lossText(r)))
	b.WriteString(fmt.Sprintf("  盈亏比: %s\n", ratioText(r)))
	b.WriteString(fmt.Sprintf("  期望值: %+.2f%%\n", r.Expectancy*100))
	b.WriteString(fmt.Sprintf("  平均年化: %s\n", pctText(r.AvgAnnualized)))
	b.WriteString(fmt.Sprintf("  平均最大回撤: %.2f%% | 最差: %.2f%%\n", r.AvgMaxDrawdown*100, r.WorstDrawdown*100))
	return b.String()
}

func lossText(r model.PostBuyReport) string {
	if !r.HasLosses {
		return "无亏损"
	}
	return fmt.Sprintf("%+.2f%%", r.AvgHPRLoss*100)
}

func ratioText(r model.PostBuyReport) string {
	if math.IsInf(r.RiskReward, 1) {
		return "∞ (无亏损)"
	}
	return fmt.Sprintf("%.2f", r.RiskReward)
}

func pctText(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v*100)
}

// FormatRunReport formats a whole run: header, closed-trade summary and post-buy analysis.
func FormatRunReport(snap *recorder.RunSnapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>SignalBacktest</b> | %s\n", html.EscapeString(snap.Symbol)))
	if !snap.Start.IsZero() {
		b.WriteString(fmt.Sprintf("区间: %s ~ %s", snap.Start.Format(model.DateLayout), snap.End.Format(model.DateLayout)))
		if snap.Source != "" {
			b.WriteString(fmt.Sprintf(" (%s)", snap.Source))
		}
		b.WriteString("\n")
	}
	if snap.Status == recorder.StatusError {
		b.WriteString(fmt.Sprintf("\n⚠️ 运行失败: %s\n", html.EscapeString(snap.Error)))
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(FormatClosedSummary(snap.Summary))
	b.WriteString("\n")

	analysed := snap.PostBuyCount
	if analysed == 0 {
		analysed = len(snap.PostBuy.Trades)
	}
	b.WriteString(formatPostBuy(snap.PostBuy, analysed))
	return b.String()
}

var tagRE = regexp.MustCompile(`</?[a-z]+>`)

// PlainText strips the HTML markup used for Telegram so reports can go to a console.
func PlainText(s string) string {
	return html.UnescapeString(tagRE.ReplaceAllString(s, ""))
}
