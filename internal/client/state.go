package client

import (
	"slices"

	"github.com/palemoky/wordle-party/internal/game/rule"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// 客户端看到的阶段，与服务端 room.Phase 的取值一致
const (
	PhaseLobby     = "lobby"
	PhaseWaiting   = "waiting"
	PhaseSelecting = "selecting"
	PhasePlaying   = "playing"
	PhaseResults   = "results"
)

// Opponent 破坏模式下由我选词的目标玩家
type Opponent struct {
	TargetID   string
	TargetName string
	Word       string // 已被接受的词，空表示尚未提交
}

// State 客户端状态
//
// State 是一个值：所有转换都返回新值，不修改接收者，也不修改接收者引用的切片。
// 每个会话持有自己的 State，没有全局状态。
type State struct {
	// 连接身份，跨房间保留
	ConnectionID string
	PlayerName   string

	// 房间身份
	RoomCode       string
	PlayerID       string
	ReconnectToken string
	GameMode       string
	WordMode       string
	HardMode       bool

	// 房间视图
	Phase      string
	Players    []protocol.PlayerInfo
	Generation uint64

	// 本局数据
	Opponents         []Opponent
	SelectionDeadline int64
	GameStartedAt     int64
	GameDeadline      int64
	Guesses           []string
	Results           []rule.Result
	Finished          bool
	Won               bool
	GameOver          *protocol.GameOverPayload

	LastError *protocol.ErrorPayload
}

// NewState 创建大厅中的初始状态
func NewState(name string) State {
	return State{PlayerName: name}.ResetRoom()
}

// ResetRoom 离开房间：清空房间身份和本局数据，回到大厅
func (s State) ResetRoom() State {
	return State{
		ConnectionID: s.ConnectionID,
		PlayerName:   s.PlayerName,
		Phase:        PhaseLobby,
		Opponents:    []Opponent{},
		Guesses:      []string{},
		Results:      []rule.Result{},
		LastError:    s.LastError,
	}
}

// ResetGame 同一房间开始新一局：保留房间身份，清空本局数据和每个玩家的对局进度
func (s State) ResetGame() State {
	players := make([]protocol.PlayerInfo, len(s.Players))
	for i, p := range s.Players {
		players[i] = protocol.PlayerInfo{
			ID:         p.ID,
			Name:       p.Name,
			IsCreator:  p.IsCreator,
			Connection: p.Connection,
		}
	}

	next := s.ResetRoom()
	next.RoomCode = s.RoomCode
	next.PlayerID = s.PlayerID
	next.ReconnectToken = s.ReconnectToken
	next.GameMode = s.GameMode
	next.WordMode = s.WordMode
	next.HardMode = s.HardMode
	next.Generation = s.Generation
	next.Players = players
	next.Phase = PhaseWaiting
	return next
}

// InRoom 是否在房间中
func (s State) InRoom() bool { return s.RoomCode != "" }

// Me 自己的公开信息
func (s State) Me() (protocol.PlayerInfo, bool) {
	for _, p := range s.Players {
		if p.ID == s.PlayerID {
			return p, true
		}
	}
	return protocol.PlayerInfo{}, false
}

// IsCreator 自己是否为房主（从玩家列表推导）
func (s State) IsCreator() bool {
	me, ok := s.Me()
	return ok && me.IsCreator
}

// AllPlayersReady 房间内有人且全部已准备
func (s State) AllPlayersReady() bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// PendingOpponents 还没有提交词的选词目标
func (s State) PendingOpponents() []Opponent {
	var out []Opponent
	for _, o := range s.Opponents {
		if o.Word == "" {
			out = append(out, o)
		}
	}
	return out
}

// Apply 根据服务端消息计算下一个状态，无法解析的 payload 返回错误且状态不变
func (s State) Apply(msg *protocol.Message) (State, error) {
	switch msg.Type {
	case protocol.MsgConnected:
		p, err := codec.ParsePayload[protocol.ConnectedPayload](msg)
		if err != nil {
			return s, err
		}
		s.ConnectionID = p.ConnectionID
		return s, nil

	case protocol.MsgRoomJoined:
		p, err := codec.ParsePayload[protocol.RoomJoinedPayload](msg)
		if err != nil {
			return s, err
		}
		next := s.ResetRoom()
		next.RoomCode = p.RoomCode
		next.PlayerID = p.PlayerID
		next.ReconnectToken = p.ReconnectToken
		next.LastError = nil
		return next.withRoomState(p.State), nil

	case protocol.MsgReconnected:
		p, err := codec.ParsePayload[protocol.ReconnectedPayload](msg)
		if err != nil {
			return s, err
		}
		s.RoomCode = p.RoomCode
		s.PlayerID = p.PlayerID
		return s.withRoomState(p.State), nil

	case protocol.MsgRoomState:
		p, err := codec.ParsePayload[protocol.RoomStatePayload](msg)
		if err != nil {
			return s, err
		}
		return s.withRoomState(*p), nil

	case protocol.MsgPlayerJoined:
		p, err := codec.ParsePayload[protocol.PlayerJoinedPayload](msg)
		if err != nil {
			return s, err
		}
		s.Players = upsertPlayer(s.Players, p.Player)
		return s, nil

	case protocol.MsgPlayerLeft:
		p, err := codec.ParsePayload[protocol.PlayerLeftPayload](msg)
		if err != nil {
			return s, err
		}
		if p.PlayerID == s.PlayerID {
			return s.ResetRoom(), nil
		}
		s.Players = slices.DeleteFunc(slices.Clone(s.Players), func(pi protocol.PlayerInfo) bool {
			return pi.ID == p.PlayerID
		})
		return s, nil

	case protocol.MsgPlayerOffline:
		p, err := codec.ParsePayload[protocol.PlayerOfflinePayload](msg)
		if err != nil {
			return s, err
		}
		s.Players = setConnection(s.Players, p.PlayerID, "disconnected")
		return s, nil

	case protocol.MsgPlayerOnline:
		p, err := codec.ParsePayload[protocol.PlayerOnlinePayload](msg)
		if err != nil {
			return s, err
		}
		s.Players = setConnection(s.Players, p.PlayerID, "connected")
		return s, nil

	case protocol.MsgSelectionStarted:
		p, err := codec.ParsePayload[protocol.SelectionStartedPayload](msg)
		if err != nil {
			return s, err
		}
		s.Opponents = upsertOpponent(s.Opponents, Opponent{TargetID: p.TargetID, TargetName: p.TargetName})
		s.SelectionDeadline = p.Deadline
		s.Phase = PhaseSelecting
		return s, nil

	case protocol.MsgWordAccepted:
		p, err := codec.ParsePayload[protocol.WordAcceptedPayload](msg)
		if err != nil {
			return s, err
		}
		ops := slices.Clone(s.Opponents)
		for i := range ops {
			if ops[i].TargetID == p.TargetID {
				ops[i].Word = p.Word
			}
		}
		s.Opponents = ops
		return s, nil

	case protocol.MsgGameStarted:
		p, err := codec.ParsePayload[protocol.GameStartedPayload](msg)
		if err != nil {
			return s, err
		}
		s.GameStartedAt = p.GameStartedAt
		s.GameDeadline = p.Deadline
		s.HardMode = p.HardMode
		s.Phase = PhasePlaying
		return s, nil

	case protocol.MsgGuessResult:
		p, err := codec.ParsePayload[protocol.GuessResultPayload](msg)
		if err != nil {
			return s, err
		}
		return s.withGuessResult(*p)

	case protocol.MsgGameOver:
		p, err := codec.ParsePayload[protocol.GameOverPayload](msg)
		if err != nil {
			return s, err
		}
		s.GameOver = p
		s.Phase = PhaseResults
		return s, nil

	case protocol.MsgError:
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return s, err
		}
		s.LastError = p
		return s, nil
	}
	return s, nil
}

// withRoomState 用完整房间视图覆盖房间字段；房间回到准备阶段时先清空上一局
func (s State) withRoomState(p protocol.RoomStatePayload) State {
	if preGame(p.Phase) && !preGame(s.Phase) {
		s = s.ResetGame()
	}
	s.RoomCode = p.Code
	s.GameMode = p.GameMode
	s.WordMode = p.WordMode
	s.HardMode = p.HardMode
	s.Phase = p.Phase
	s.Players = slices.Clone(p.Players)
	s.Generation = p.Generation
	if p.SelectionDeadline != 0 {
		s.SelectionDeadline = p.SelectionDeadline
	}
	if p.GameStartedAt != 0 {
		s.GameStartedAt = p.GameStartedAt
		s.GameDeadline = p.GameDeadline
	}

	// 重连后从公开结果恢复自己的进度（单词本身不在公开视图中）
	if me, ok := s.Me(); ok && len(s.Results) < len(me.Results) {
		results := make([]rule.Result, 0, len(me.Results))
		for _, r := range me.Results {
			if parsed, err := rule.ParseResult(r); err == nil {
				results = append(results, parsed)
			}
		}
		s.Results = results
		s.Finished = me.Finished
		s.Won = me.Won
	}
	return s
}

func (s State) withGuessResult(p protocol.GuessResultPayload) (State, error) {
	result, err := rule.ParseResult(p.Result)
	if err != nil {
		return s, err
	}

	players := slices.Clone(s.Players)
	for i := range players {
		if players[i].ID != p.PlayerID {
			continue
		}
		players[i].GuessCount = p.GuessCount
		players[i].Results = append(slices.Clone(players[i].Results), p.Result)
		players[i].Finished = p.Finished
		players[i].Won = p.Won
	}
	s.Players = players

	if p.PlayerID == s.PlayerID {
		s.Guesses = append(slices.Clone(s.Guesses), p.Word)
		s.Results = append(slices.Clone(s.Results), result)
		s.Finished = p.Finished
		s.Won = p.Won
	}
	return s, nil
}

func preGame(phase string) bool {
	return phase == PhaseLobby || phase == PhaseWaiting
}

func upsertPlayer(players []protocol.PlayerInfo, p protocol.PlayerInfo) []protocol.PlayerInfo {
	out := slices.Clone(players)
	for i := range out {
		if out[i].ID == p.ID {
			out[i] = p
			return out
		}
	}
	return append(out, p)
}

func upsertOpponent(ops []Opponent, o Opponent) []Opponent {
	out := slices.Clone(ops)
	for i := range out {
		if out[i].TargetID == o.TargetID {
			out[i] = o
			return out
		}
	}
	return append(out, o)
}

func setConnection(players []protocol.PlayerInfo, id, conn string) []protocol.PlayerInfo {
	out := slices.Clone(players)
	for i := range out {
		if out[i].ID == id {
			out[i].Connection = conn
		}
	}
	return out
}
