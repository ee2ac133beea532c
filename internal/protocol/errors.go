package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001
	ErrCodeRateLimit  = 1002 // 速率限制

	ErrCodeRoomNotFound  = 2001
	ErrCodeRoomFull      = 2002
	ErrCodeNotInRoom     = 2003
	ErrCodeGameStarted   = 2004 // 游戏已开始
	ErrCodeAlreadyInRoom = 2005
	ErrCodeCodeExhausted = 2006 // 房间号耗尽
	ErrCodeReconnectFail = 2007
	ErrCodeInvalidConfig = 2008
	ErrCodeNotCreator    = 2009
	ErrCodeNotAllReady   = 2010
	ErrCodeTooFewPlayers = 2011

	ErrCodeWrongPhase       = 3001
	ErrCodePlayerFinished   = 3002
	ErrCodeTooManyGuesses   = 3003
	ErrCodeInvalidWord      = 3004
	ErrCodeNotInWordList    = 3005
	ErrCodeHardModePosition = 3006
	ErrCodeHardModeMissing  = 3007
	ErrCodeNoAssignment     = 3008

	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomFull:          "房间已满",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeGameStarted:       "游戏已开始",
	ErrCodeAlreadyInRoom:     "您已在房间中",
	ErrCodeCodeExhausted:     "暂无可用房间号，请稍后再试",
	ErrCodeReconnectFail:     "重连失败",
	ErrCodeInvalidConfig:     "无效的房间配置",
	ErrCodeNotCreator:        "只有房主可以执行此操作",
	ErrCodeNotAllReady:       "还有玩家未准备",
	ErrCodeTooFewPlayers:     "玩家人数不足",
	ErrCodeWrongPhase:        "当前阶段不允许此操作",
	ErrCodePlayerFinished:    "您已完成本局",
	ErrCodeTooManyGuesses:    "猜测次数已用完",
	ErrCodeInvalidWord:       "单词必须是 5 个字母",
	ErrCodeNotInWordList:     "单词不在词库中",
	ErrCodeHardModePosition:  "困难模式：已确认的字母必须保持在原位置",
	ErrCodeHardModeMissing:   "困难模式：必须使用已提示的字母",
	ErrCodeNoAssignment:      "没有需要您选词的玩家",
	ErrCodeServerMaintenance: "服务器维护中",
}
