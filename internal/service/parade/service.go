package parade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"paradestate/internal/model"
	"paradestate/internal/notify"
	"paradestate/internal/parser"
	"paradestate/internal/service/mutator"
	"paradestate/internal/service/pending"
	"paradestate/internal/service/sweeper"
	"paradestate/internal/store"
)

// ErrSweepRunning 已有清理正在执行
var ErrSweepRunning = errors.New("sweep already running")

// 固定回复
const (
	ReplyNoPending   = "⚠ No pending update found."
	ReplyCancelled   = "❌ Update cancelled."
	ReplySuccess     = "✅ Status update successful!"
	ReplyPartial     = "⚠ Status update completed with errors:"
	ReplyNoStatus    = "⚠ No status line found. Please start your message with 'Status: ...'."
	ReplyInvalidHint = "Please fix the status and send the message again, or cancel."
)

// Audit 审计日志
type Audit interface {
	RecordRun(run store.RunLog, batches []model.MutationBatch) (int64, error)
	SetMetaTime(key string, t time.Time) error
	GetMetaTime(key string) (time.Time, error)
}

// Options 工作流依赖
type Options struct {
	Mutator     *mutator.Mutator
	Sweeper     *sweeper.Sweeper
	Pending     *pending.Store
	Sender      notify.Sender
	Audit       Audit // 可为 nil
	ReportChats []string
}

// Reply 一次交互的回复
type Reply struct {
	ChatID     string             `json:"chatId"`
	Text       string             `json:"text"`
	Token      string             `json:"token,omitempty"`
	Extraction *parser.Extraction `json:"extraction,omitempty"`
	Outcome    *mutator.Outcome   `json:"outcome,omitempty"`
	RunID      string             `json:"runId,omitempty"`
}

// Status 服务状态
type Status struct {
	Pending      int       `json:"pending"`
	SweepRunning bool      `json:"sweepRunning"`
	LastSweepAt  time.Time `json:"lastSweepAt"`
	LastUpdateAt time.Time `json:"lastUpdateAt"`
}

// SweepResult 一次清理的报告与审计 id
type SweepResult struct {
	Report sweeper.Report `json:"report"`
	RunID  string         `json:"runId"`
}

// Service 消息 -> 确认 -> 写入 的工作流，以及清理触发
//
// 会话 id 显式贯穿每次调用，没有"当前会话"全局状态。
type Service struct {
	parser  *parser.MessageParser
	mutator *mutator.Mutator
	sweeper *sweeper.Sweeper
	pending *pending.Store
	sender  notify.Sender
	audit   Audit
	reports []string

	sweepMu      sync.Mutex
	sweepRunning bool
	now          func() time.Time
}

// New 创建工作流
func New(opts Options) *Service {
	if opts.Pending == nil {
		opts.Pending = pending.NewStore()
	}
	if opts.Sender == nil {
		opts.Sender = notify.LogSender{}
	}
	return &Service{
		parser:  parser.NewMessageParser(),
		mutator: opts.Mutator,
		sweeper: opts.Sweeper,
		pending: opts.Pending,
		sender:  opts.Sender,
		audit:   opts.Audit,
		reports: opts.ReportChats,
		now:     time.Now,
	}
}

// HandleMessage 解析新消息并暂存，回复确认摘要
func (s *Service) HandleMessage(ctx context.Context, chatID, text string) (Reply, error) {
	if chatID == "" {
		return Reply{}, errors.New("chat id is required")
	}
	ext, err := s.parser.Parse(text)
	if errors.Is(err, parser.ErrNoStatusLine) {
		reply := Reply{ChatID: chatID, Text: ReplyNoStatus, Extraction: ext}
		s.send(ctx, chatID, reply.Text)
		return reply, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("parse message: %w", err)
	}

	summary := ext.Summary()
	if ext.Invalid() {
		summary += "\n" + ReplyInvalidHint
	}
	entry := s.pending.Put(chatID, ext)
	reply := Reply{ChatID: chatID, Text: summary, Token: entry.Token, Extraction: ext}
	s.send(ctx, chatID, reply.Text)
	return reply, nil
}

// Confirm 确认暂存的更新并写入名册；token 为空时确认当前暂存项
func (s *Service) Confirm(ctx context.Context, chatID, token string) (Reply, error) {
	if s.mutator == nil {
		return Reply{}, errors.New("roster is not configured")
	}
	entry, ok := s.pending.Take(chatID, token)
	if !ok {
		reply := Reply{ChatID: chatID, Text: ReplyNoPending}
		s.send(ctx, chatID, reply.Text)
		return reply, nil
	}

	u := entry.Extraction.Update
	out := s.mutator.Apply(ctx, u)
	head := ReplySuccess
	if !out.Success {
		head = ReplyPartial
	}
	text := head
	if msg := out.Message(); msg != "" {
		text += "\n" + msg
	}

	runID := uuid.NewString()
	s.record(store.RunLog{
		RunID:    runID,
		Kind:     store.KindUpdate,
		ChatID:   chatID,
		Status:   u.OfficialStatus.String(),
		Names:    u.Names.String(),
		DateText: u.DateText,
		Success:  out.Success,
		Message:  text,
	}, out.Batches, store.MetaLastUpdate)

	log.Printf("[parade] 会话 %s 确认更新 %s: success=%v batches=%d", chatID, u.OfficialStatus, out.Success, len(out.Batches))
	reply := Reply{ChatID: chatID, Text: text, Outcome: &out, RunID: runID}
	s.send(ctx, chatID, reply.Text)
	return reply, nil
}

// Cancel 取消暂存的更新
func (s *Service) Cancel(ctx context.Context, chatID string) Reply {
	text := ReplyNoPending
	if s.pending.Discard(chatID) {
		text = ReplyCancelled
	}
	s.send(ctx, chatID, text)
	return Reply{ChatID: chatID, Text: text}
}

// Pending 查看暂存项
func (s *Service) Pending(chatID string) (pending.Entry, bool) {
	return s.pending.Get(chatID)
}

// RunSweep 执行一次清理；同一时刻最多一个清理，重叠调用返回 ErrSweepRunning
func (s *Service) RunSweep(ctx context.Context, dryRun bool) (SweepResult, error) {
	if s.sweeper == nil {
		return SweepResult{}, errors.New("sweeper is not configured")
	}
	s.sweepMu.Lock()
	if s.sweepRunning {
		s.sweepMu.Unlock()
		return SweepResult{}, ErrSweepRunning
	}
	s.sweepRunning = true
	s.sweepMu.Unlock()
	defer func() {
		s.sweepMu.Lock()
		s.sweepRunning = false
		s.sweepMu.Unlock()
	}()

	sw := s.sweeper
	if dryRun {
		sw = sw.DryRun()
	}
	start := s.now()
	rep := sw.Run(ctx, start)
	log.Printf("[parade] 清理完成 参考日=%s dryRun=%v 单元格=%d success=%v (%s)",
		rep.Reference.Format(model.DateLayout), dryRun, rep.Reverted(), rep.Success, time.Since(start).Round(time.Millisecond))

	runID := uuid.NewString()
	metaKey := store.MetaLastSweepAt
	if dryRun {
		metaKey = ""
	}
	s.record(store.RunLog{
		RunID:    runID,
		Kind:     store.KindSweep,
		DateText: rep.Reference.Format(model.DateLayout),
		Success:  rep.Success,
		DryRun:   dryRun,
		Message:  rep.Message(),
	}, rep.Batches, metaKey)

	if !dryRun {
		for _, chat := range s.reports {
			s.send(ctx, chat, "🧹 Sweep for "+rep.Reference.Format(model.DateLayout)+"\n"+rep.Message())
		}
	}
	return SweepResult{Report: rep, RunID: runID}, nil
}

// SendReminder 向多个会话发送提醒
func (s *Service) SendReminder(ctx context.Context, chats []string, text string) int {
	sent := 0
	for _, chat := range chats {
		if err := s.sender.Send(ctx, chat, text); err != nil {
			log.Printf("[parade] 提醒发送到 %s 失败: %v", chat, err)
			continue
		}
		sent++
	}
	return sent
}

// Status 服务状态
func (s *Service) Status() Status {
	st := Status{Pending: s.pending.Len()}
	s.sweepMu.Lock()
	st.SweepRunning = s.sweepRunning
	s.sweepMu.Unlock()
	if s.audit != nil {
		st.LastSweepAt, _ = s.audit.GetMetaTime(store.MetaLastSweepAt)
		st.LastUpdateAt, _ = s.audit.GetMetaTime(store.MetaLastUpdate)
	}
	return st
}

func (s *Service) record(run store.RunLog, batches []model.MutationBatch, metaKey string) {
	if s.audit == nil {
		return
	}
	run.CreatedAt = s.now()
	if _, err := s.audit.RecordRun(run, batches); err != nil {
		log.Printf("[parade] 写入审计日志失败: %v", err)
	}
	if metaKey != "" {
		if err := s.audit.SetMetaTime(metaKey, run.CreatedAt); err != nil {
			log.Printf("[parade] 更新 %s 失败: %v", metaKey, err)
		}
	}
}

func (s *Service) send(ctx context.Context, chatID, text string) {
	if err := s.sender.Send(ctx, chatID, text); err != nil {
		log.Printf("[parade] 发送到 %s 失败: %v", chatID, err)
	}
}
