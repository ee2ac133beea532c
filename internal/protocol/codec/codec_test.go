package codec

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/protocol"
)

func TestEncodeDecode_BothFormats(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatJSON, FormatProtobuf} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			msg := MustNewMessage(protocol.MsgSubmitGuess, protocol.SubmitGuessPayload{Word: "crane"})
			data, err := Encode(msg, format)
			require.NoError(t, err)
			assert.Equal(t, format, Detect(data))

			got, err := Decode(data)
			require.NoError(t, err)
			defer PutMessage(got)

			assert.Equal(t, protocol.MsgSubmitGuess, got.Type)
			p, err := ParsePayload[protocol.SubmitGuessPayload](got)
			require.NoError(t, err)
			assert.Equal(t, "crane", p.Word)
		})
	}
}

func TestEncode_NoPayload(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgLeaveRoom, nil)

	data, err := Encode(msg, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"leave_room"}`, string(data))

	wire, err := Encode(msg, FormatProtobuf)
	require.NoError(t, err)
	got, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgLeaveRoom, got.Type)
	assert.Empty(t, got.Payload)

	// 空 payload 解析为零值
	p, err := ParsePayload[protocol.SetReadyPayload](got)
	require.NoError(t, err)
	assert.False(t, p.IsReady)
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	t.Parallel()

	var b []byte
	b = protowire.AppendTag(b, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, string(protocol.MsgPing))
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(`{"timestamp":5}`))

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgPing, got.Type)

	p, err := ParsePayload[protocol.PingPayload](got)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Timestamp)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	truncated := protowire.AppendTag(nil, fieldType, protowire.BytesType)
	truncated = append(truncated, 10, 'a')

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad json", []byte(`{"type":`)},
		{"json without type", []byte(`{"payload":{}}`)},
		{"truncated wire", truncated},
		{"wire without type", protowire.AppendBytes(protowire.AppendTag(nil, fieldPayload, protowire.BytesType), []byte("{}"))},
		{"garbage", []byte{0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	t.Parallel()

	msg := &protocol.Message{Type: protocol.MsgJoinRoom, Payload: json.RawMessage(`[1,2]`)}
	_, err := ParsePayload[protocol.JoinRoomPayload](msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join_room")
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
		wantText string
	}{
		{
			name:     "game error",
			err:      apperrors.ErrRoomFull,
			wantCode: protocol.ErrCodeRoomFull,
			wantKind: string(apperrors.KindInvalidAction),
			wantText: protocol.ErrorMessages[protocol.ErrCodeRoomFull],
		},
		{
			name:     "wrapped with custom text",
			err:      fmt.Errorf("join: %w", apperrors.ErrInvalidConfig.WithMessage("未知模式")),
			wantCode: protocol.ErrCodeInvalidConfig,
			wantKind: string(apperrors.KindValidationFailed),
			wantText: "未知模式",
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("boom"),
			wantCode: protocol.ErrCodeUnknown,
			wantKind: string(apperrors.KindInternal),
			wantText: protocol.ErrorMessages[protocol.ErrCodeUnknown],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := NewErrorMessage(tt.err)
			assert.Equal(t, protocol.MsgError, msg.Type)

			p, err := ParsePayload[protocol.ErrorPayload](msg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, p.Code)
			assert.Equal(t, tt.wantKind, p.Kind)
			assert.Equal(t, tt.wantText, p.Message)
		})
	}
}

func TestNewErrorMessageWithCode(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessageWithCode(protocol.ErrCodeRateLimit)
	p, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeRateLimit, p.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeRateLimit], p.Message)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"protobuf", FormatProtobuf, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
