package notify

import (
	"context"
	"log"
	"sync"
)

// Sender 通知通道：向会话发送一段文本（对核心而言是发后即忘）
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// LogSender 只写日志的通道，未接入聊天平台时使用
type LogSender struct{}

// Send 写日志
func (LogSender) Send(_ context.Context, chatID, text string) error {
	log.Printf("[notify] -> %s: %s", chatID, text)
	return nil
}

// Message 已发送的消息
type Message struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// MemorySender 保存在内存中的通道，HTTP 轮询与测试使用
type MemorySender struct {
	mu       sync.Mutex
	messages []Message
	limit    int
}

// NewMemorySender 创建内存通道，limit<=0 时不限制保留条数
func NewMemorySender(limit int) *MemorySender {
	return &MemorySender{limit: limit}
}

// Send 追加一条消息
func (s *MemorySender) Send(_ context.Context, chatID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{ChatID: chatID, Text: text})
	if s.limit > 0 && len(s.messages) > s.limit {
		s.messages = append([]Message(nil), s.messages[len(s.messages)-s.limit:]...)
	}
	return nil
}

// Messages 某会话的消息（chatID 为空返回全部）
func (s *MemorySender) Messages(chatID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, m := range s.messages {
		if chatID == "" || m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Multi 依次发送到多个通道，返回第一个错误
type Multi []Sender

// Send 广播
func (m Multi) Send(ctx context.Context, chatID, text string) error {
	var first error
	for _, s := range m {
		if err := s.Send(ctx, chatID, text); err != nil && first == nil {
			first = err
		}
	}
	return first
}
