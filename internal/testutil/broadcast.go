//go:build !production

package testutil

import (
	"encoding/json"
	"sync"

	"github.com/palemoky/wordle-party/internal/protocol"
)

// Sent 一条投递记录
type Sent struct {
	Room    string
	Type    protocol.MessageType
	Payload any
}

// Outbox 记录按玩家投递的消息，并发安全
type Outbox struct {
	mu       sync.Mutex
	byPlayer map[string][]Sent
}

// NewOutbox 创建空的投递记录
func NewOutbox() *Outbox {
	return &Outbox{byPlayer: make(map[string][]Sent)}
}

// SendToPlayers 实现房间的 Broadcaster
func (o *Outbox) SendToPlayers(roomCode string, playerIDs []string, msgType protocol.MessageType, payload any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range playerIDs {
		o.byPlayer[id] = append(o.byPlayer[id], Sent{Room: roomCode, Type: msgType, Payload: payload})
	}
}

// Messages 返回玩家收到的全部消息
func (o *Outbox) Messages(playerID string) []Sent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Sent(nil), o.byPlayer[playerID]...)
}

// Types 返回玩家收到的消息类型序列
func (o *Outbox) Types(playerID string) []protocol.MessageType {
	msgs := o.Messages(playerID)
	out := make([]protocol.MessageType, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

// Count 玩家收到某类消息的次数
func (o *Outbox) Count(playerID string, t protocol.MessageType) int {
	n := 0
	for _, m := range o.Messages(playerID) {
		if m.Type == t {
			n++
		}
	}
	return n
}

// Last 返回玩家最近一条某类消息，并解码到 out
func (o *Outbox) Last(playerID string, t protocol.MessageType, out any) bool {
	msgs := o.Messages(playerID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type != t {
			continue
		}
		data, err := json.Marshal(msgs[i].Payload)
		if err != nil {
			return false
		}
		return json.Unmarshal(data, out) == nil
	}
	return false
}

// Reset 清空记录
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.byPlayer = make(map[string][]Sent)
}
