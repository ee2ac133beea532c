// Package codec 负责消息的编解码。
//
// 支持两种帧格式：
//   - json：{"type": "...", "payload": {...}}
//   - protobuf：protowire 编码的信封，字段 1 为消息类型，字段 2 为 JSON payload
//
// 解码时按首字节自动识别格式，'{' 开头视为 JSON。
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/protocol"
)

// Format 帧格式
type Format string

const (
	FormatJSON     Format = "json"
	FormatProtobuf Format = "protobuf"
)

const (
	fieldType    protowire.Number = 1
	fieldPayload protowire.Number = 2
)

// ErrEmptyFrame 空帧
var ErrEmptyFrame = errors.New("codec: empty frame")

// ParseFormat 解析配置中的格式名，空字符串为 JSON
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatProtobuf:
		return FormatProtobuf, nil
	}
	return "", fmt.Errorf("codec: unknown format %q", s)
}

// NewMessage 创建一个新消息，payload 为 nil 时不带 payload
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := &protocol.Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("编码 %s 失败: %w", msgType, err)
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParsePayload 解析消息的 Payload 到指定类型，payload 为空时返回零值
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", msg.Type, err)
	}
	return &payload, nil
}

// NewErrorMessage 把错误转换为 error 消息，非 GameError 按内部错误处理
func NewErrorMessage(err error) *protocol.Message {
	var ge *apperrors.GameError
	if !errors.As(err, &ge) {
		ge = apperrors.ErrInternal
	}
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    ge.Code,
		Kind:    string(ge.Kind),
		Message: ge.Message,
	})
}

// NewErrorMessageWithCode 按错误码创建错误消息
func NewErrorMessageWithCode(code int) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: protocol.ErrorMessages[code],
	})
}

// Encode 按格式编码消息
func Encode(m *protocol.Message, format Format) ([]byte, error) {
	if format == FormatProtobuf {
		return encodeWire(m), nil
	}
	return encodeJSON(m)
}

// Decode 解码一帧，自动识别格式
// 注意: 使用完毕后可调用 PutMessage 归还对象到池
func Decode(data []byte) (*protocol.Message, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}
	if Detect(data) == FormatJSON {
		return decodeJSON(data)
	}
	return decodeWire(data)
}

// Detect 返回帧的格式。protobuf 信封总以字段 1 的 tag (0x0A) 开头，不会与 '{' 冲突
func Detect(data []byte) Format {
	if len(data) > 0 && data[0] == '{' {
		return FormatJSON
	}
	return FormatProtobuf
}

func encodeJSON(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	// Encoder 会追加换行
	out := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return append([]byte(nil), out...), nil
}

func decodeJSON(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, errors.New("codec: missing message type")
	}
	return msg, nil
}

func encodeWire(m *protocol.Message) []byte {
	b := make([]byte, 0, len(m.Type)+len(m.Payload)+8)
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(m.Type))
	if len(m.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Payload)
	}
	return b
}

func decodeWire(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			PutMessage(msg)
			return nil, fmt.Errorf("codec: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldType && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				PutMessage(msg)
				return nil, fmt.Errorf("codec: bad type field: %w", protowire.ParseError(m))
			}
			msg.Type = protocol.MessageType(v)
			n = m
		case num == fieldPayload && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				PutMessage(msg)
				return nil, fmt.Errorf("codec: bad payload field: %w", protowire.ParseError(m))
			}
			msg.Payload = append([]byte(nil), v...) // 复制 payload 避免引用
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				PutMessage(msg)
				return nil, fmt.Errorf("codec: bad field %d: %w", num, protowire.ParseError(n))
			}
		}
		data = data[n:]
	}

	if msg.Type == "" {
		PutMessage(msg)
		return nil, errors.New("codec: missing message type")
	}
	return msg, nil
}
