package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/client"
	"github.com/palemoky/wordle-party/internal/logger"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
	"github.com/palemoky/wordle-party/internal/words"
)

func main() {
	serverAddr := flag.String("server", "localhost:1790", "服务器地址")
	name := flag.String("name", "", "玩家昵称，为空时由服务器随机分配")
	roomCode := flag.String("room", "", "要加入的房间号，为空时创建房间")
	gameMode := flag.String("mode", "classic", "游戏模式 classic/sabotage")
	wordMode := flag.String("words", "random", "经典模式选词 random/daily")
	hard := flag.Bool("hard", false, "困难模式")
	minPlayers := flag.Int("min-players", 1, "房主开局所需的最少人数")
	rounds := flag.Int("rounds", 1, "完成多少局后退出")
	format := flag.String("format", "json", "帧格式 json/protobuf")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "随机种子")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(envOr("WORDLE_LOG_LEVEL", "info"), true)

	f, err := codec.ParseFormat(*format)
	if err != nil {
		log.Fatal().Err(err).Msg("无效的帧格式")
	}

	c := client.New(client.Config{
		URL:    fmt.Sprintf("ws://%s/ws", *serverAddr),
		Name:   *name,
		Format: f,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = c.Connect(dialCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("server", *serverAddr).Msg("连接服务器失败")
	}
	defer c.Close()
	c.StartHeartbeat()

	if *roomCode != "" {
		err = c.JoinRoom(*roomCode)
	} else {
		err = c.CreateRoom(*gameMode, *wordMode, *hard)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("发送请求失败")
	}

	b := &bot{
		c:          c,
		solver:     newSolver(words.Default("").SabotagePool(), *seed),
		minPlayers: *minPlayers,
		rounds:     *rounds,
		sentAt:     -1,
	}
	if err := b.run(ctx); err != nil {
		log.Error().Err(err).Msg("机器人退出")
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// bot 根据客户端状态自动完成准备、选词和猜词
type bot struct {
	c          *client.Client
	solver     *solver
	minPlayers int
	rounds     int

	played     int
	generation uint64
	phase      string
	readySent  bool
	startSent  bool
	wordSent   bool
	againSent  bool
	lastGuess  string
	sentAt     int // 发送 lastGuess 时已有的猜测数
}

func (b *bot) run(ctx context.Context) error {
	for {
		select {
		case msg := <-b.c.Events():
			b.observe(msg)
			if b.played >= b.rounds {
				log.Info().Int("rounds", b.played).Msg("👋 已完成全部对局")
				return nil
			}
			b.act(b.c.State())
		case <-b.c.Done():
			return client.ErrClosed
		case <-ctx.Done():
			return nil
		}
	}
}

// observe 处理需要额外记录的事件
func (b *bot) observe(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgRoomJoined:
		s := b.c.State()
		log.Info().Str("room", s.RoomCode).Str("player", s.PlayerName).Msg("🏠 已进入房间")

	case protocol.MsgError:
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return
		}
		log.Warn().Int("code", p.Code).Str("message", p.Message).Msg("服务器返回错误")
		switch p.Code {
		case protocol.ErrCodeNotInWordList, protocol.ErrCodeInvalidWord,
			protocol.ErrCodeHardModePosition, protocol.ErrCodeHardModeMissing:
			if b.lastGuess != "" {
				b.solver.reject(b.lastGuess)
			}
			b.sentAt = -1
			b.wordSent = false
		case protocol.ErrCodeNotAllReady, protocol.ErrCodeTooFewPlayers:
			b.startSent = false
		case protocol.ErrCodeRoomNotFound, protocol.ErrCodeRoomFull, protocol.ErrCodeGameStarted:
			b.c.Close()
		}

	case protocol.MsgGameOver:
		b.played++
		s := b.c.State()
		log.Info().Bool("won", s.Won).Int("guesses", len(s.Guesses)).Msg("🏁 本局结束")
	}
}

// act 根据当前阶段发送下一步操作
func (b *bot) act(s client.State) {
	if !s.InRoom() {
		return
	}
	if s.Generation != b.generation || s.Phase != b.phase {
		b.generation, b.phase = s.Generation, s.Phase
		b.readySent, b.startSent, b.wordSent, b.againSent = false, false, false, false
		b.lastGuess, b.sentAt = "", -1
	}

	switch s.Phase {
	case client.PhaseWaiting:
		if me, ok := s.Me(); ok && !me.IsReady && !b.readySent {
			b.readySent = b.c.SetReady(true) == nil
		}
		if s.IsCreator() && s.AllPlayersReady() && len(s.Players) >= b.minPlayers && !b.startSent {
			b.startSent = b.c.StartGame() == nil
		}

	case client.PhaseSelecting:
		if len(s.PendingOpponents()) > 0 && !b.wordSent {
			b.wordSent = b.c.SubmitSabotageWord(b.solver.pick()) == nil
		}

	case client.PhasePlaying:
		if s.Finished || b.sentAt == len(s.Guesses) {
			return
		}
		word := b.solver.next(s.Guesses, s.Results)
		if word == "" {
			log.Warn().Int("guesses", len(s.Guesses)).Msg("没有可用的候选词")
			return
		}
		if b.c.SubmitGuess(word) == nil {
			b.lastGuess, b.sentAt = word, len(s.Guesses)
		}

	case client.PhaseResults:
		if s.IsCreator() && !b.againSent {
			b.againSent = b.c.PlayAgain() == nil
		}
	}
}
