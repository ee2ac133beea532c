package apperrors

import (
	"errors"

	"github.com/palemoky/wordle-party/internal/protocol"
)

// Kind 错误分类
type Kind string

const (
	KindNotFound         Kind = "not_found"         // 房间不存在
	KindInvalidAction    Kind = "invalid_action"    // 当前阶段不允许的操作
	KindValidationFailed Kind = "validation_failed" // 单词/困难模式/选词校验失败
	KindCapacityExceeded Kind = "capacity_exceeded" // 房间号空间耗尽
	KindUnresolved       Kind = "unresolved"        // 连接未绑定玩家
	KindInternal         Kind = "internal"
)

// GameError 游戏错误（房间、注册表、处理器共享）
type GameError struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is 按错误码匹配，WithMessage 派生的错误与原始哨兵相等
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithMessage 复制错误并替换提示文本
func (e *GameError) WithMessage(msg string) *GameError {
	return &GameError{Code: e.Code, Kind: e.Kind, Message: msg}
}

func newError(code int, kind Kind) *GameError {
	return &GameError{Code: code, Kind: kind, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrRoomNotFound = newError(protocol.ErrCodeRoomNotFound, KindNotFound)

	ErrRoomFull       = newError(protocol.ErrCodeRoomFull, KindInvalidAction)
	ErrAlreadyInRoom  = newError(protocol.ErrCodeAlreadyInRoom, KindInvalidAction)
	ErrGameStarted    = newError(protocol.ErrCodeGameStarted, KindInvalidAction)
	ErrNotCreator     = newError(protocol.ErrCodeNotCreator, KindInvalidAction)
	ErrNotAllReady    = newError(protocol.ErrCodeNotAllReady, KindInvalidAction)
	ErrTooFewPlayers  = newError(protocol.ErrCodeTooFewPlayers, KindInvalidAction)
	ErrWrongPhase     = newError(protocol.ErrCodeWrongPhase, KindInvalidAction)
	ErrPlayerFinished = newError(protocol.ErrCodePlayerFinished, KindInvalidAction)
	ErrTooManyGuesses = newError(protocol.ErrCodeTooManyGuesses, KindInvalidAction)
	ErrNoAssignment   = newError(protocol.ErrCodeNoAssignment, KindInvalidAction)
	ErrReconnectFail  = newError(protocol.ErrCodeReconnectFail, KindInvalidAction)
	ErrMaintenance    = newError(protocol.ErrCodeServerMaintenance, KindInvalidAction)
	ErrRateLimited    = newError(protocol.ErrCodeRateLimit, KindInvalidAction)

	ErrInvalidMessage   = newError(protocol.ErrCodeInvalidMsg, KindValidationFailed)
	ErrInvalidConfig    = newError(protocol.ErrCodeInvalidConfig, KindValidationFailed)
	ErrInvalidWord      = newError(protocol.ErrCodeInvalidWord, KindValidationFailed)
	ErrNotInWordList    = newError(protocol.ErrCodeNotInWordList, KindValidationFailed)
	ErrHardModePosition = newError(protocol.ErrCodeHardModePosition, KindValidationFailed)
	ErrHardModeMissing  = newError(protocol.ErrCodeHardModeMissing, KindValidationFailed)

	ErrCodeSpaceExhausted = newError(protocol.ErrCodeCodeExhausted, KindCapacityExceeded)

	ErrNotInRoom = newError(protocol.ErrCodeNotInRoom, KindUnresolved)

	ErrInternal = newError(protocol.ErrCodeUnknown, KindInternal)
)

// KindOf 返回错误分类，非 GameError 视为内部错误
func KindOf(err error) Kind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// CodeOf 返回协议错误码
func CodeOf(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}
