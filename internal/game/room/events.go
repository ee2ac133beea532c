package room

import "github.com/palemoky/wordle-party/internal/protocol"

// Event 一条出站消息
type Event struct {
	Type    protocol.MessageType
	To      []string // nil 表示房间内所有玩家
	Except  string   // 广播时排除的玩家
	Payload any
}

func toAll(t protocol.MessageType, payload any) Event {
	return Event{Type: t, Payload: payload}
}

func toPlayer(id string, t protocol.MessageType, payload any) Event {
	return Event{Type: t, To: []string{id}, Payload: payload}
}

func toOthers(except string, t protocol.MessageType, payload any) Event {
	return Event{Type: t, Except: except, Payload: payload}
}

// Recipients 根据当前成员解析收件人
func (e Event) Recipients(members []string) []string {
	if e.To != nil {
		return e.To
	}
	out := make([]string, 0, len(members))
	for _, id := range members {
		if id != e.Except {
			out = append(out, id)
		}
	}
	return out
}
