package client

import (
	"time"

	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// --- 便捷方法 ---

// CreateRoom 创建房间
func (c *Client) CreateRoom(gameMode, wordMode string, hardMode bool) error {
	return c.Send(codec.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		PlayerName: c.cfg.Name,
		GameMode:   gameMode,
		WordMode:   wordMode,
		HardMode:   hardMode,
	}))
}

// JoinRoom 加入房间
func (c *Client) JoinRoom(roomCode string) error {
	return c.Send(codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomCode:   roomCode,
		PlayerName: c.cfg.Name,
	}))
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom() error {
	return c.Send(codec.MustNewMessage(protocol.MsgLeaveRoom, nil))
}

// SetReady 准备 / 取消准备
func (c *Client) SetReady(ready bool) error {
	return c.Send(codec.MustNewMessage(protocol.MsgSetReady, protocol.SetReadyPayload{IsReady: ready}))
}

// StartGame 房主开始游戏
func (c *Client) StartGame() error {
	return c.Send(codec.MustNewMessage(protocol.MsgStartGame, nil))
}

// PlayAgain 房主再来一局
func (c *Client) PlayAgain() error {
	return c.Send(codec.MustNewMessage(protocol.MsgPlayAgain, nil))
}

// SubmitGuess 提交猜测
func (c *Client) SubmitGuess(word string) error {
	return c.Send(codec.MustNewMessage(protocol.MsgSubmitGuess, protocol.SubmitGuessPayload{Word: word}))
}

// SubmitSabotageWord 为对手选词
func (c *Client) SubmitSabotageWord(word string) error {
	return c.Send(codec.MustNewMessage(protocol.MsgSubmitSabotageWord, protocol.SubmitSabotageWordPayload{Word: word}))
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.Send(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}
