package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"paradestate/internal/model"
)

// 运行类型
const (
	KindUpdate = "update"
	KindSweep  = "sweep"
)

// RunLog 一次确认更新或清理的审计记录
type RunLog struct {
	ID        int64      `json:"id"`
	RunID     string     `json:"runId"`
	Kind      string     `json:"kind"`
	ChatID    string     `json:"chatId,omitempty"`
	Status    string     `json:"status,omitempty"`
	Names     string     `json:"names,omitempty"`
	DateText  string     `json:"dateText,omitempty"`
	Success   bool       `json:"success"`
	DryRun    bool       `json:"dryRun"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
	Batches   []BatchLog `json:"batches,omitempty"`
}

// BatchLog 单个批次记录
type BatchLog struct {
	Sheet     string           `json:"sheet"`
	Cells     int              `json:"cells"`
	Mutations []model.Mutation `json:"mutations"`
}

// RecordRun 在一个事务内写入运行记录及其批次，返回记录 id
func (s *Store) RecordRun(run RunLog, batches []model.MutationBatch) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO run_logs (run_id, kind, chat_id, status, names, date_text, success, dry_run, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.Kind, run.ChatID, run.Status, run.Names, run.DateText, run.Success, run.DryRun, run.Message, run.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run log id: %w", err)
	}

	for _, b := range batches {
		payload, err := json.Marshal(b.Mutations)
		if err != nil {
			return 0, fmt.Errorf("failed to encode batch %s: %w", b.Sheet, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO batch_logs (run_log_id, sheet, cells, mutations)
			VALUES (?, ?, ?, ?)
		`, id, b.Sheet, b.Len(), string(payload)); err != nil {
			return 0, fmt.Errorf("failed to insert batch log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run log: %w", err)
	}
	return id, nil
}

// History 按时间倒序列出运行记录；kind 为空时不过滤
func (s *Store) History(kind string, limit int) ([]RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, run_id, kind, chat_id, status, names, date_text, success, dry_run, message, created_at
		FROM run_logs`
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []RunLog
	for rows.Next() {
		var r RunLog
		if err := rows.Scan(&r.ID, &r.RunID, &r.Kind, &r.ChatID, &r.Status, &r.Names, &r.DateText,
			&r.Success, &r.DryRun, &r.Message, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun 按 run_id 读取记录及批次
func (s *Store) GetRun(runID string) (*RunLog, error) {
	var r RunLog
	err := s.db.QueryRow(`
		SELECT id, run_id, kind, chat_id, status, names, date_text, success, dry_run, message, created_at
		FROM run_logs WHERE run_id = ?
	`, runID).Scan(&r.ID, &r.RunID, &r.Kind, &r.ChatID, &r.Status, &r.Names, &r.DateText,
		&r.Success, &r.DryRun, &r.Message, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, err
	}

	batches, err := s.batches(r.ID)
	if err != nil {
		return nil, err
	}
	r.Batches = batches
	return &r, nil
}

func (s *Store) batches(runLogID int64) ([]BatchLog, error) {
	rows, err := s.db.Query(`
		SELECT sheet, cells, mutations FROM batch_logs WHERE run_log_id = ? ORDER BY id
	`, runLogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BatchLog
	for rows.Next() {
		var b BatchLog
		var payload string
		if err := rows.Scan(&b.Sheet, &b.Cells, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &b.Mutations); err != nil {
			return nil, fmt.Errorf("failed to decode batch %s: %w", b.Sheet, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
