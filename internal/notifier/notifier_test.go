package notifier

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/recorder"
)

func TestFormatClosedSummary(t *testing.T) {
	tests := []struct {
		name string
		in   model.ClosedTradeSummary
		want []string
	}{
		{"empty", model.ClosedTradeSummary{Empty: true, OpenTrades: 2}, []string{"no closed trades", "未平仓: 2"}},
		{"trades", model.ClosedTradeSummary{
			ClosedTrades: 4, Wins: 3, AvgBuyPrice: 10, AvgSellPrice: 11, AvgProfitPct: 10,
			WinRate: 0.75, MaxProfitPct: 20, MinProfitPct: -5,
		}, []string{"有效交易次数: 4", "+10.00%", "75.00% (3/4)", "-5.00%"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatClosedSummary(tt.in)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestFormatPostBuyReport_NoLosses(t *testing.T) {
	r := model.PostBuyReport{
		Window: 20, Trades: make([]model.PostBuyTrade, 2), Wins: 2, WinRate: 1,
		AvgHPR: 0.05, AvgHPRWin: 0.05, RiskReward: math.Inf(1), AvgAnnualized: 0.8,
	}
	got := FormatPostBuyReport(r)
	for _, w := range []string{"20 日", "分析笔数: 2", "∞", "无亏损", "+80.00%"} {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
}

func TestFormatRunReport(t *testing.T) {
	snap := &recorder.RunSnapshot{
		Symbol: "S&P", Source: "mock",
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Status: recorder.StatusOK, Summary: model.ClosedTradeSummary{Empty: true},
		PostBuy: model.PostBuyReport{Window: 5, Empty: true}, PostBuyCount: 0,
	}
	got := FormatRunReport(snap)
	if !strings.Contains(got, "S&amp;P") || !strings.Contains(got, "2024-01-01 ~ 2024-06-30") {
		t.Errorf("unexpected header:\n%s", got)
	}
	if plain := PlainText(got); strings.Contains(plain, "<b>") || !strings.Contains(plain, "S&P") {
		t.Errorf("PlainText did not strip markup:\n%s", plain)
	}

	snap.Status, snap.Error = recorder.StatusError, "no data"
	if got := FormatRunReport(snap); !strings.Contains(got, "运行失败: no data") {
		t.Errorf("error run not reported:\n%s", got)
	}
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["chat_id"] != "42" {
			t.Errorf("chat_id = %q", payload["chat_id"])
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	n.RetryBackoff = time.Millisecond
	if err := n.SendWithRetry(context.Background(), "hello", 2); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestTelegramNotifier_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	err := n.Send(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v, want API description", err)
	}
}

func TestTelegramNotifier_Polling(t *testing.T) {
	var replies []string
	var polls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if polls.Add(1) > 1 {
				cancel()
				w.Write([]byte(`{"ok":true,"result":[]}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":"/backtest","chat":{"id":42}}},
				{"update_id":8,"message":{"text":"/last","chat":{"id":99}}},
				{"update_id":9}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			replies = append(replies, payload["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	var seen []string
	n.StartPolling(ctx, func(cmd string) string {
		seen = append(seen, cmd)
		return "ran " + cmd
	})

	if len(seen) != 1 || seen[0] != "/backtest" {
		t.Errorf("handled commands = %v, want only /backtest", seen)
	}
	if len(replies) != 1 || replies[0] != "ran /backtest" {
		t.Errorf("replies = %v", replies)
	}
}

func TestTruncate(t *testing.T) {
	in := strings.Repeat("line\n", 10)
	got := truncate(in, 12)
	if got != "line\nline" {
		t.Errorf("truncate = %q", got)
	}
	if truncate("short", 100) != "short" {
		t.Error("short text must be unchanged")
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	in := strings.Repeat("回测", 10) // 3 bytes per rune
	for _, limit := range []int{1, 4, 5, 10} {
		got := truncate(in, limit)
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%d) = %q is not valid UTF-8", limit, got)
		}
		if len(got) > limit || len(got)%3 != 0 {
			t.Errorf("truncate(%d) len = %d, want whole runes within limit", limit, len(got))
		}
	}
	if got := truncate(in, 7); got != "回测" {
		t.Errorf("truncate(7) = %q, want %q", got, "回测")
	}
}
