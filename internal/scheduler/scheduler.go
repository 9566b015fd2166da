package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"paradestate/internal/service/parade"
)

// Jobs 定时任务需要的工作流能力
type Jobs interface {
	RunSweep(ctx context.Context, dryRun bool) (parade.SweepResult, error)
	SendReminder(ctx context.Context, chats []string, text string) int
}

// Config 定时任务配置
type Config struct {
	Location      *time.Location
	SweepSpec     string
	ReminderSpec  string
	ReminderChats []string
	ReminderText  string
	JobTimeout    time.Duration
}

// Scheduler 基于 cron 的定时清理与提醒
type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
	cfg  Config
}

// New 注册任务；表达式为空表示不启用该任务
func New(jobs Jobs, cfg Config) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	logger := cron.PrintfLogger(log.Default())
	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	s := &Scheduler{cron: c, jobs: jobs, cfg: cfg}

	if cfg.SweepSpec != "" {
		if _, err := c.AddFunc(cfg.SweepSpec, s.sweep); err != nil {
			return nil, fmt.Errorf("sweep schedule %q: %w", cfg.SweepSpec, err)
		}
	}
	if cfg.ReminderSpec != "" && len(cfg.ReminderChats) > 0 {
		if _, err := c.AddFunc(cfg.ReminderSpec, s.remind); err != nil {
			return nil, fmt.Errorf("reminder schedule %q: %w", cfg.ReminderSpec, err)
		}
	}
	return s, nil
}

// Start 启动调度（非阻塞）
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		log.Printf("[scheduler] 任务 #%d 下次执行: %s", e.ID, e.Next.Format(time.RFC3339))
	}
}

// Stop 停止调度并等待执行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len 已注册的任务数
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()
	res, err := s.jobs.RunSweep(ctx, false)
	if errors.Is(err, parade.ErrSweepRunning) {
		log.Printf("[scheduler] 上一次清理仍在执行，跳过")
		return
	}
	if err != nil {
		log.Printf("[scheduler] 清理失败: %v", err)
		return
	}
	log.Printf("[scheduler] 清理完成 run=%s 单元格=%d", res.RunID, res.Report.Reverted())
}

func (s *Scheduler) remind() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()
	n := s.jobs.SendReminder(ctx, s.cfg.ReminderChats, s.cfg.ReminderText)
	log.Printf("[scheduler] 提醒已发送 %d/%d", n, len(s.cfg.ReminderChats))
}
