package store

import (
	"database/sql"
	"fmt"
	"time"
)

// 元数据键
const (
	MetaLastSweepAt = "last_sweep_at"
	MetaLastUpdate  = "last_update_at"
)

// GetMeta 获取元数据
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("meta key not found: %s", key)
		}
		return "", err
	}
	return value, nil
}

// SetMeta 设置元数据
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// GetMetaTime 获取时间类型元数据，不存在时返回零值
func (s *Store) GetMetaTime(key string) (time.Time, error) {
	value, err := s.GetMeta(key)
	if err != nil {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// SetMetaTime 设置时间类型元数据
func (s *Store) SetMetaTime(key string, t time.Time) error {
	return s.SetMeta(key, t.Format(time.RFC3339))
}

// GetAllMeta 获取所有元数据
func (s *Store) GetAllMeta() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}
