package scheduler

import (
	"context"
	"strings"
	"testing"

	"SignalBacktest/internal/pipeline"
	"SignalBacktest/internal/recorder"
)

type fakeRunner struct {
	runs int
	last *recorder.RunSnapshot
}

func (f *fakeRunner) Run(context.Context) (*pipeline.Result, error) {
	f.runs++
	f.last = &recorder.RunSnapshot{Symbol: "SPY", Status: recorder.StatusOK}
	return &pipeline.Result{Snapshot: f.last}, nil
}

func (f *fakeRunner) Last() *recorder.RunSnapshot { return f.last }

func TestHandleCommand(t *testing.T) {
	fr := &fakeRunner{}
	s := NewScheduler(context.Background(), fr, nil)

	if got := s.HandleCommand("/last"); got != "暂无回测记录" {
		t.Errorf("/last before any run = %q", got)
	}
	if got := s.HandleCommand("/backtest@SignalBot"); got != "" {
		t.Errorf("/backtest reply = %q, want empty", got)
	}
	if fr.runs != 1 {
		t.Fatalf("runs = %d, want 1", fr.runs)
	}
	if got := s.HandleCommand("/last"); !strings.Contains(got, "SPY") {
		t.Errorf("/last = %q, want report for SPY", got)
	}
	if got := s.HandleCommand("hello"); !strings.Contains(got, "/backtest") {
		t.Errorf("help text = %q", got)
	}
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeRunner{}, nil)
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"0 30 22 * * 1-5", false},
		{"@daily", false},
		{"30 22 * * 1-5", true},
		{"not a spec", true},
	}
	for _, tt := range tests {
		if err := s.Register(tt.spec); (err != nil) != tt.wantErr {
			t.Errorf("Register(%q) err = %v, wantErr %v", tt.spec, err, tt.wantErr)
		}
	}
}
