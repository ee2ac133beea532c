//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/wordle-party/internal/protocol"
)

// MockConn 连接 mock，用于断言具体的发送调用
type MockConn struct {
	mock.Mock
}

func (m *MockConn) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConn) Send(msg *protocol.Message) {
	m.Called(msg)
}

// RecordingConn 记录收到的所有消息，并发安全
type RecordingConn struct {
	id string

	mu   sync.Mutex
	msgs []*protocol.Message
}

// NewRecordingConn 创建记录连接
func NewRecordingConn(id string) *RecordingConn {
	return &RecordingConn{id: id}
}

func (c *RecordingConn) ID() string { return c.id }

func (c *RecordingConn) Send(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// Messages 返回收到的消息副本
func (c *RecordingConn) Messages() []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.Message(nil), c.msgs...)
}

// Types 返回收到的消息类型序列
func (c *RecordingConn) Types() []protocol.MessageType {
	msgs := c.Messages()
	out := make([]protocol.MessageType, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

// Last 最近一条某类消息，没有时返回 nil
func (c *RecordingConn) Last(t protocol.MessageType) *protocol.Message {
	msgs := c.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == t {
			return msgs[i]
		}
	}
	return nil
}

// Reset 清空记录
func (c *RecordingConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}
