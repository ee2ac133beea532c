package protocol

// --- 客户端请求 Payloads ---

// ReconnectPayload 断线重连请求
type ReconnectPayload struct {
	Token    string `json:"token"`     // 重连令牌
	PlayerID string `json:"player_id"` // 玩家 ID
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	PlayerName string `json:"player_name"`
	GameMode   string `json:"game_mode"` // classic/sabotage
	WordMode   string `json:"word_mode"` // random/daily
	HardMode   bool   `json:"hard_mode"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
}

// SetReadyPayload 准备状态
type SetReadyPayload struct {
	IsReady bool `json:"is_ready"`
}

// SubmitGuessPayload 提交猜测
type SubmitGuessPayload struct {
	Word string `json:"word"`
}

// SubmitSabotageWordPayload 为目标玩家选词
type SubmitSabotageWordPayload struct {
	Word string `json:"word"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	RoomCode       string           `json:"room_code"`
	PlayerID       string           `json:"player_id"`
	ReconnectToken string           `json:"reconnect_token"` // 重连令牌
	State          RoomStatePayload `json:"state"`
}

// ReconnectedPayload 重连成功响应
type ReconnectedPayload struct {
	PlayerID string           `json:"player_id"`
	RoomCode string           `json:"room_code"`
	State    RoomStatePayload `json:"state"`
}

// RoomStatePayload 房间完整状态
type RoomStatePayload struct {
	Code              string       `json:"code"`
	GameMode          string       `json:"game_mode"`
	WordMode          string       `json:"word_mode"`
	HardMode          bool         `json:"hard_mode"`
	Phase             string       `json:"phase"`
	Players           []PlayerInfo `json:"players"`
	SelectionDeadline int64        `json:"selection_deadline,omitempty"` // 毫秒时间戳
	GameStartedAt     int64        `json:"game_started_at,omitempty"`
	GameDeadline      int64        `json:"game_deadline,omitempty"`
	Generation        uint64       `json:"generation"`
}

// PlayerInfo 玩家公开信息（不含单词）
type PlayerInfo struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	IsCreator    bool       `json:"is_creator"`
	IsReady      bool       `json:"is_ready"`
	Connection   string     `json:"connection"` // connected/disconnected/timed_out
	GuessCount   int        `json:"guess_count"`
	Results      [][]string `json:"results,omitempty"` // 每次猜测的 correct/present/absent
	Finished     bool       `json:"finished"`
	Won          bool       `json:"won"`
	FinishTimeMs int64      `json:"finish_time_ms,omitempty"`
}

// PlayerJoinedPayload 玩家加入通知
type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeftPayload 玩家离开通知
type PlayerLeftPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Reason     string `json:"reason"` // left/timed_out
}

// PlayerOfflinePayload 玩家掉线通知
type PlayerOfflinePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Deadline   int64  `json:"deadline"` // 重连截止时间（毫秒）
}

// PlayerOnlinePayload 玩家上线通知
type PlayerOnlinePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// SelectionStartedPayload 选词开始（只发给选词者）
type SelectionStartedPayload struct {
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
	Deadline   int64  `json:"deadline"`
}

// WordAcceptedPayload 选词已接受（只发给选词者）
type WordAcceptedPayload struct {
	TargetID string `json:"target_id"`
	Word     string `json:"word"`
}

// GameStartedPayload 猜词阶段开始
type GameStartedPayload struct {
	GameStartedAt int64 `json:"game_started_at"`
	Deadline      int64 `json:"deadline"`
	HardMode      bool  `json:"hard_mode"`
}

// GuessResultPayload 猜测结果，Word 只发给猜测者本人
type GuessResultPayload struct {
	PlayerID   string   `json:"player_id"`
	Word       string   `json:"word,omitempty"`
	Result     []string `json:"result"`
	GuessCount int      `json:"guess_count"`
	Finished   bool     `json:"finished"`
	Won        bool     `json:"won"`
}

// GameOverPayload 游戏结束
type GameOverPayload struct {
	Reason      string           `json:"reason"` // all_finished/timeout
	TargetWord  string           `json:"target_word,omitempty"`
	Results     []PlayerResult   `json:"results"`
	Assignments []AssignmentInfo `json:"assignments,omitempty"`
}

// PlayerResult 单个玩家的对局结果
type PlayerResult struct {
	Rank         int    `json:"rank"`
	PlayerID     string `json:"player_id"`
	PlayerName   string `json:"player_name"`
	Won          bool   `json:"won"`
	Guesses      int    `json:"guesses"`
	FinishTimeMs int64  `json:"finish_time_ms,omitempty"`
	Word         string `json:"word"` // 该玩家的目标词
}

// AssignmentInfo 破坏模式选词分配
type AssignmentInfo struct {
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
	Word       string `json:"word"`
	PickerID   string `json:"picker_id"`
	PickerName string `json:"picker_name"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}
