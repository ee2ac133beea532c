package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgReconnect MessageType = "reconnect" // 断线重连
	MsgPing      MessageType = "ping"      // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgSetReady   MessageType = "set_ready"   // 准备 / 取消准备
	MsgStartGame  MessageType = "start_game"  // 房主开始游戏
	MsgPlayAgain  MessageType = "play_again"  // 房主再来一局

	// 游戏操作
	MsgSubmitGuess        MessageType = "submit_guess"         // 提交猜测
	MsgSubmitSabotageWord MessageType = "submit_sabotage_word" // 为对手选词
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected     MessageType = "connected"      // 连接成功
	MsgReconnected   MessageType = "reconnected"    // 重连成功
	MsgPong          MessageType = "pong"           // 心跳 pong
	MsgPlayerOffline MessageType = "player_offline" // 玩家掉线通知
	MsgPlayerOnline  MessageType = "player_online"  // 玩家上线通知

	// 房间相关
	MsgRoomJoined   MessageType = "room_joined"   // 加入房间成功（含创建）
	MsgRoomState    MessageType = "room_state"    // 房间完整状态
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开

	// 游戏流程
	MsgSelectionStarted MessageType = "selection_started" // 开始为对手选词
	MsgWordAccepted     MessageType = "word_accepted"     // 选词已接受
	MsgGameStarted      MessageType = "game_started"      // 开始猜词
	MsgGuessResult      MessageType = "guess_result"      // 猜测结果
	MsgGameOver         MessageType = "game_over"         // 游戏结束

	// 错误
	MsgError MessageType = "error" // 错误消息
)
