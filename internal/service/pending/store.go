package pending

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"paradestate/internal/parser"
)

// Entry 等待确认的一条更新
type Entry struct {
	Token      string             `json:"token"`
	ChatID     string             `json:"chatId"`
	Extraction *parser.Extraction `json:"extraction"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Store 按会话暂存的待确认更新
//
// 没有过期机制：同一会话的新消息覆盖旧条目，确认或取消时恰好移除一次。
type Store struct {
	mu    sync.Mutex
	items map[string]Entry
	now   func() time.Time
}

// NewStore 创建暂存区
func NewStore() *Store {
	return &Store{
		items: make(map[string]Entry),
		now:   time.Now,
	}
}

// Put 暂存（覆盖同一会话的旧条目），每次生成新 token
func (s *Store) Put(chatID string, ext *parser.Extraction) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{
		Token:      uuid.NewString(),
		ChatID:     chatID,
		Extraction: ext,
		CreatedAt:  s.now(),
	}
	s.items[chatID] = e
	return e
}

// Get 查看暂存条目
func (s *Store) Get(chatID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[chatID]
	return e, ok
}

// Take 取出并移除；token 非空时必须与当前条目一致（被覆盖的旧确认视为不存在）
func (s *Store) Take(chatID, token string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[chatID]
	if !ok || (token != "" && token != e.Token) {
		return Entry{}, false
	}
	delete(s.items, chatID)
	return e, true
}

// Discard 丢弃暂存条目，返回是否存在
func (s *Store) Discard(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.items[chatID]
	delete(s.items, chatID)
	return ok
}

// Len 暂存条目数
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
