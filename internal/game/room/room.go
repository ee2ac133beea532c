// Package room 房间聚合与房间 actor。
//
// Room 只做内存状态变更并返回出站事件，不做任何 I/O；
// Actor 为每个房间启动一个 goroutine，串行执行所有变更、管理计时器并投递事件。
package room

import (
	"slices"
	"strconv"
	"time"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/game/rule"
	"github.com/palemoky/wordle-party/internal/game/sabotage"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/words"
)

const (
	DefaultMaxPlayers       = 8
	defaultSelectionTimeout = 60 * time.Second
	defaultGameTimeout      = 10 * time.Minute
)

// Corpus 房间用到的词库能力
type Corpus interface {
	rule.Dictionary
	sabotage.Eligibility
	DailyWord(t time.Time) string
	Answers() []string
	SabotagePool() []string
}

// Config 建房参数
type Config struct {
	GameMode         GameMode
	WordMode         WordMode
	HardMode         bool
	MaxPlayers       int
	SelectionTimeout time.Duration
	GameTimeout      time.Duration
}

// Room 房间聚合，只能在所属 actor 的 goroutine 中访问
type Room struct {
	Code              string
	GameMode          GameMode
	WordMode          WordMode
	HardMode          bool
	MaxPlayers        int
	Phase             Phase
	TargetWord        string // 经典模式共享目标词
	Assignments       []sabotage.WordAssignment
	SelectionDeadline time.Time
	GameStartedAt     time.Time
	GameDeadline      time.Time
	Generation        uint64 // 每次开局和重置都会递增
	EndReason         string
	EndedAt           time.Time

	players map[string]*PlayerState
	order   []string // 加入顺序

	selectionTimeout time.Duration
	gameTimeout      time.Duration
	corpus           Corpus
}

// New 创建房间，初始阶段为 lobby
func New(code string, cfg Config, corpus Corpus) *Room {
	if cfg.GameMode == "" {
		cfg.GameMode = ModeClassic
	}
	if cfg.WordMode == "" {
		cfg.WordMode = WordRandom
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.SelectionTimeout <= 0 {
		cfg.SelectionTimeout = defaultSelectionTimeout
	}
	if cfg.GameTimeout <= 0 {
		cfg.GameTimeout = defaultGameTimeout
	}

	return &Room{
		Code:             code,
		GameMode:         cfg.GameMode,
		WordMode:         cfg.WordMode,
		HardMode:         cfg.HardMode,
		MaxPlayers:       cfg.MaxPlayers,
		Phase:            PhaseLobby,
		players:          make(map[string]*PlayerState),
		selectionTimeout: cfg.SelectionTimeout,
		gameTimeout:      cfg.GameTimeout,
		corpus:           corpus,
	}
}

// --- 查询 ---

// Has 玩家是否在房间中
func (r *Room) Has(id string) bool {
	_, ok := r.players[id]
	return ok
}

// Player 返回玩家状态的副本
func (r *Room) Player(id string) (PlayerState, bool) {
	p, ok := r.players[id]
	if !ok {
		return PlayerState{}, false
	}
	return p.clone(), true
}

// Players 按加入顺序返回所有玩家的副本
func (r *Room) Players() []PlayerState {
	out := make([]PlayerState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id].clone())
	}
	return out
}

// PlayerIDs 按加入顺序返回玩家 ID
func (r *Room) PlayerIDs() []string {
	return slices.Clone(r.order)
}

// PlayerCount 玩家数（含断线保留中的玩家）
func (r *Room) PlayerCount() int { return len(r.players) }

// ConnectedCount 在线玩家数
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connection == Connected {
			n++
		}
	}
	return n
}

// TargetFor 返回玩家要猜的词
func (r *Room) TargetFor(id string) string {
	return targetFor(r.GameMode, r.TargetWord, r.Assignments, id)
}

func targetFor(mode GameMode, target string, assignments []sabotage.WordAssignment, id string) string {
	if mode != ModeSabotage {
		return target
	}
	if i := sabotage.IndexByTarget(assignments, id); i >= 0 {
		return assignments[i].Word
	}
	return ""
}

// --- 成员 ---

// Join 加入房间，第一个加入的玩家成为房主
func (r *Room) Join(id, name string) ([]Event, error) {
	if r.Has(id) {
		return nil, apperrors.ErrAlreadyInRoom
	}
	if r.Phase != PhaseLobby && r.Phase != PhaseWaiting {
		return nil, apperrors.ErrGameStarted
	}
	if len(r.players) >= r.MaxPlayers {
		return nil, apperrors.ErrRoomFull
	}

	p := &PlayerState{
		ID:         id,
		Name:       name,
		IsCreator:  len(r.players) == 0,
		Connection: Connected,
	}
	r.players[id] = p
	r.order = append(r.order, id)
	r.settle()

	return []Event{
		toOthers(id, protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{Player: playerInfo(p, r.GameStartedAt)}),
	}, nil
}

// Leave 移除玩家，不存在时为空操作
//
// 选词阶段：以该玩家为目标的分配被删除；该玩家负责的分配保留，截止时补兜底词。
// 之后重新检查阶段是否可以推进。
func (r *Room) Leave(id, reason string, now time.Time) []Event {
	p, ok := r.players[id]
	if !ok {
		return nil
	}

	delete(r.players, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	if p.IsCreator && len(r.order) > 0 {
		r.players[r.order[0]].IsCreator = true
	}

	evs := []Event{toAll(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		PlayerID:   id,
		PlayerName: p.Name,
		Reason:     reason,
	})}
	if len(r.players) == 0 {
		return evs
	}

	switch r.Phase {
	case PhaseSelecting:
		if i := sabotage.IndexByTarget(r.Assignments, id); i >= 0 {
			r.Assignments = slices.Delete(r.Assignments, i, i+1)
		}
		if sabotage.Complete(r.Assignments) {
			return append(evs, r.beginPlaying(now)...)
		}
	case PhasePlaying:
		if r.allFinished() {
			return append(evs, r.finish(ReasonAllFinished, now)...)
		}
	}

	return append(evs, r.stateEvent())
}

// SetReady 设置准备状态，玩家不存在时为空操作
func (r *Room) SetReady(id string, ready bool) ([]Event, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, nil
	}
	if r.Phase != PhaseWaiting {
		return nil, apperrors.ErrWrongPhase
	}
	p.IsReady = ready
	return []Event{r.stateEvent()}, nil
}

// --- 对局 ---

// Start 房主开局：所有人准备后进入选词（破坏模式）或直接开始猜词
func (r *Room) Start(id string, now time.Time) ([]Event, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, apperrors.ErrNotInRoom
	}
	if !p.IsCreator {
		return nil, apperrors.ErrNotCreator
	}
	if r.Phase != PhaseWaiting {
		return nil, apperrors.ErrWrongPhase
	}
	if !AllPlayersReady(r.Players()) {
		return nil, apperrors.ErrNotAllReady
	}
	if r.GameMode == ModeSabotage && len(r.players) < 2 {
		return nil, apperrors.ErrTooFewPlayers
	}

	r.Generation++

	if r.GameMode != ModeSabotage {
		r.TargetWord = r.pickTarget(now)
		return r.beginPlaying(now), nil
	}

	players := make([]sabotage.Player, 0, len(r.order))
	for _, pid := range r.order {
		players = append(players, sabotage.Player{ID: pid, Name: r.players[pid].Name})
	}
	r.Assignments = sabotage.Assign(players)
	r.Phase = PhaseSelecting
	r.SelectionDeadline = now.Add(r.selectionTimeout)

	evs := []Event{r.stateEvent()}
	for _, a := range r.Assignments {
		evs = append(evs, toPlayer(a.PickerID, protocol.MsgSelectionStarted, protocol.SelectionStartedPayload{
			TargetID:   a.TargetID,
			TargetName: a.TargetName,
			Deadline:   r.SelectionDeadline.UnixMilli(),
		}))
	}
	return evs, nil
}

// SubmitSabotageWord 选词者提交目标词，全部提交后进入猜词阶段
func (r *Room) SubmitSabotageWord(id, word string, now time.Time) ([]Event, error) {
	if !r.Has(id) {
		return nil, apperrors.ErrNotInRoom
	}
	if r.Phase != PhaseSelecting {
		return nil, apperrors.ErrWrongPhase
	}

	idx, err := sabotage.Submit(r.Assignments, id, word, r.corpus)
	if err != nil {
		return nil, err
	}

	evs := []Event{toPlayer(id, protocol.MsgWordAccepted, protocol.WordAcceptedPayload{
		TargetID: r.Assignments[idx].TargetID,
		Word:     r.Assignments[idx].Word,
	})}
	if sabotage.Complete(r.Assignments) {
		evs = append(evs, r.beginPlaying(now)...)
	}
	return evs, nil
}

// SubmitGuess 提交猜测，次数上限在写入前检查
func (r *Room) SubmitGuess(id, word string, now time.Time) ([]Event, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, apperrors.ErrNotInRoom
	}
	if r.Phase != PhasePlaying {
		return nil, apperrors.ErrWrongPhase
	}
	if p.Finished {
		return nil, apperrors.ErrPlayerFinished
	}
	if len(p.Guesses) >= rule.MaxGuesses {
		return nil, apperrors.ErrTooManyGuesses
	}

	w, err := rule.ValidateGuess(word, r.corpus)
	if err != nil {
		return nil, err
	}
	if r.HardMode {
		if err := rule.CheckHardMode(w, p.Guesses, p.Results); err != nil {
			return nil, err
		}
	}
	target := r.TargetFor(id)
	if target == "" {
		return nil, apperrors.ErrNoAssignment
	}

	res := rule.Score(w, target)
	p.record(w, res, now)

	public := protocol.GuessResultPayload{
		PlayerID:   id,
		Result:     res.Strings(),
		GuessCount: len(p.Guesses),
		Finished:   p.Finished,
		Won:        p.Won,
	}
	own := public
	own.Word = w

	evs := []Event{
		toPlayer(id, protocol.MsgGuessResult, own),
		toOthers(id, protocol.MsgGuessResult, public),
	}
	if r.allFinished() {
		evs = append(evs, r.finish(ReasonAllFinished, now)...)
	}
	return evs, nil
}

// ExpireSelection 选词截止：在快照上补齐兜底词，只写回仍在房间中的目标玩家
func (r *Room) ExpireSelection(generation uint64, now time.Time) []Event {
	if generation != r.Generation || r.Phase != PhaseSelecting {
		return nil
	}

	snap := r.Snapshot()
	filled := sabotage.FillMissing(snap.Assignments, r.corpus.SabotagePool(), snap.Code, snap.Generation)

	next := make([]sabotage.WordAssignment, 0, len(filled))
	for _, a := range filled {
		if !r.Has(a.TargetID) {
			continue
		}
		if i := sabotage.IndexByTarget(r.Assignments, a.TargetID); i >= 0 && r.Assignments[i].Word != "" {
			a.Word = r.Assignments[i].Word
		}
		next = append(next, a)
	}
	r.Assignments = next

	return r.beginPlaying(now)
}

// ExpireGame 对局超时，未完成的玩家按失败结算
func (r *Room) ExpireGame(generation uint64, now time.Time) []Event {
	if generation != r.Generation || r.Phase != PhasePlaying {
		return nil
	}
	return r.finish(ReasonTimeout, now)
}

// PlayAgain 房主在结算后重开一局，保留房间和成员
func (r *Room) PlayAgain(id string) ([]Event, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, apperrors.ErrNotInRoom
	}
	if !p.IsCreator {
		return nil, apperrors.ErrNotCreator
	}
	if r.Phase != PhaseResults {
		return nil, apperrors.ErrWrongPhase
	}

	r.ResetGame()
	r.settle()
	return []Event{r.stateEvent()}, nil
}

// --- 断线 ---

// Disconnect 标记玩家断线，保留其进度
func (r *Room) Disconnect(id string, graceDeadline time.Time) []Event {
	p, ok := r.players[id]
	if !ok || p.Connection != Connected {
		return nil
	}
	p.Connection = Disconnected
	p.GraceEpoch++
	return []Event{toOthers(id, protocol.MsgPlayerOffline, protocol.PlayerOfflinePayload{
		PlayerID:   id,
		PlayerName: p.Name,
		Deadline:   graceDeadline.UnixMilli(),
	})}
}

// Reconnect 断线玩家重新上线
func (r *Room) Reconnect(id string) ([]Event, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, apperrors.ErrReconnectFail
	}
	if p.Connection == Connected {
		return nil, nil
	}
	p.Connection = Connected
	return []Event{toOthers(id, protocol.MsgPlayerOnline, protocol.PlayerOnlinePayload{
		PlayerID:   id,
		PlayerName: p.Name,
	})}, nil
}

// ExpireGrace 断线保留期结束，彻底移除玩家。epoch 与当前断线不符时为空操作
func (r *Room) ExpireGrace(id string, epoch uint64, now time.Time) []Event {
	p, ok := r.players[id]
	if !ok || p.Connection != Disconnected || p.GraceEpoch != epoch {
		return nil
	}
	p.Connection = TimedOut
	return r.Leave(id, LeaveReasonTimedOut, now)
}

// --- 重置 ---

// ResetGame 清除单局数据，保留房间号、玩法和成员
func (r *Room) ResetGame() {
	r.TargetWord = ""
	r.Assignments = nil
	r.SelectionDeadline = time.Time{}
	r.GameStartedAt = time.Time{}
	r.GameDeadline = time.Time{}
	r.EndReason = ""
	r.EndedAt = time.Time{}
	for _, p := range r.players {
		p.resetGame()
	}
	r.Generation++
	r.Phase = PhaseLobby
}

// ResetRoom 整体替换为空房间，身份字段一并清空
func (r *Room) ResetRoom() {
	*r = Room{
		Phase:   PhaseLobby,
		players: make(map[string]*PlayerState),
		corpus:  r.corpus,
	}
}

// --- 内部 ---

// settle 有成员的 lobby 房间进入 waiting
func (r *Room) settle() {
	if r.Phase == PhaseLobby && len(r.players) > 0 {
		r.Phase = PhaseWaiting
	}
}

func (r *Room) pickTarget(now time.Time) string {
	if r.WordMode == WordDaily {
		return r.corpus.DailyWord(now)
	}
	return words.Pick(r.corpus.Answers(), words.Seed(
		r.Code, "target", strconv.FormatUint(r.Generation, 10), strconv.FormatInt(now.UnixNano(), 10)))
}

func (r *Room) beginPlaying(now time.Time) []Event {
	r.Phase = PhasePlaying
	r.SelectionDeadline = time.Time{}
	r.GameStartedAt = now
	r.GameDeadline = now.Add(r.gameTimeout)

	return []Event{
		r.stateEvent(),
		toAll(protocol.MsgGameStarted, protocol.GameStartedPayload{
			GameStartedAt: now.UnixMilli(),
			Deadline:      r.GameDeadline.UnixMilli(),
			HardMode:      r.HardMode,
		}),
	}
}

func (r *Room) allFinished() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if !p.Finished {
			return false
		}
	}
	return true
}

func (r *Room) finish(reason string, now time.Time) []Event {
	for _, p := range r.players {
		if !p.Finished {
			p.Finished = true
			p.FinishTime = now
		}
	}
	r.Phase = PhaseResults
	r.GameDeadline = time.Time{}
	r.EndReason = reason
	r.EndedAt = now

	return []Event{r.stateEvent(), toAll(protocol.MsgGameOver, r.Snapshot().GameOver())}
}

func (r *Room) stateEvent() Event {
	return toAll(protocol.MsgRoomState, r.View())
}
