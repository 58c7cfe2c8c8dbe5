// Package scheduler re-runs the backtest on a cron schedule and answers
// Telegram commands.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"SignalBacktest/internal/notifier"
	"SignalBacktest/internal/pipeline"
	"SignalBacktest/internal/recorder"
)

// Runner is the pipeline entry point the scheduler drives.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
	Last() *recorder.RunSnapshot
}

// Scheduler manages the cron task and command handling.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Recorder recorder.Recorder
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. Specs use the six-field format with seconds.
func NewScheduler(ctx context.Context, runner Runner, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		Runner:   runner,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// Register adds the backtest task under spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.backtestTask); err != nil {
		return fmt.Errorf("register backtest task %q: %w", spec, err)
	}
	log.Printf("[INFO] backtest scheduled: %s", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the backtest task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.backtestTask()
}

func (s *Scheduler) backtestTask() {
	log.Println("[INFO] running scheduled backtest")
	// Runner records and reports failures itself.
	_, _ = s.Runner.Run(s.Ctx)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	cmd := strings.Fields(command)
	if len(cmd) == 0 {
		return ""
	}
	switch strings.ToLower(strings.SplitN(cmd[0], "@", 2)[0]) {
	case "/backtest", "运行回测":
		s.backtestTask()
		return ""
	case "/last", "查看上次结果":
		return s.lastReport()
	default:
		return "可用命令:\n• /backtest 运行回测\n• /last 查看上次结果"
	}
}

func (s *Scheduler) lastReport() string {
	snap, err := s.Recorder.LastRun()
	if err != nil {
		log.Printf("[WARN] load last run: %v", err)
	}
	if snap == nil {
		snap = s.Runner.Last()
	}
	if snap == nil {
		return "暂无回测记录"
	}
	return notifier.FormatRunReport(snap)
}
