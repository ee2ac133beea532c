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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/config"
	"github.com/palemoky/wordle-party/internal/game/registry"
	"github.com/palemoky/wordle-party/internal/game/timer"
	"github.com/palemoky/wordle-party/internal/logger"
	"github.com/palemoky/wordle-party/internal/server"
	"github.com/palemoky/wordle-party/internal/server/session"
	"github.com/palemoky/wordle-party/internal/server/storage"
	"github.com/palemoky/wordle-party/internal/words"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	_ = godotenv.Load()

	// 加载配置
	cfg, loadErr := config.Load(*configPath)
	if loadErr != nil {
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	if loadErr != nil {
		log.Warn().Err(loadErr).Str("path", *configPath).Msg("加载配置文件失败，使用默认配置")
	}

	corpus, err := words.Load(words.Options{
		AnswersFile:     cfg.Words.AnswersFile,
		AllowedFile:     cfg.Words.AllowedFile,
		ChallengingFile: cfg.Words.ChallengingFile,
		DailySalt:       cfg.Words.DailySalt,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("加载词库失败")
	}
	answers, eligible, allowed := corpus.Stats()
	log.Info().Int("answers", answers).Int("eligible", eligible).Int("allowed", allowed).Msg("📚 词库已加载")

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("打开存储失败")
	}

	sessions := session.NewManager(session.Config{
		ReconnectTimeout: cfg.Game.ReconnectGraceDuration(),
	}, nil)

	reg := registry.New(registry.Config{
		MaxPlayers:       cfg.Game.MaxPlayers,
		CodeLength:       cfg.Game.CodeLength,
		CodeAttempts:     cfg.Game.CodeAttempts,
		SelectionTimeout: cfg.Game.SelectionTimeoutDuration(),
		GameTimeout:      cfg.Game.GameTimeoutDuration(),
		ReconnectGrace:   cfg.Game.ReconnectGraceDuration(),
		IdleTimeout:      cfg.Game.RoomIdleTimeoutDuration(),
	}, registry.Deps{
		Corpus:          corpus,
		Timers:          timer.NewService(nil),
		Recorder:        store,
		Rand:            registry.NewSeededRand(cfg.Game.CodeSeed),
		OnPlayerRemoved: func(_, playerID string) { sessions.Delete(playerID) },
	})

	srv, err := server.New(cfg, server.Deps{Registry: reg, Sessions: sessions, Store: store})
	if err != nil {
		log.Fatal().Err(err).Msg("创建服务器失败")
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msg("🎮 Wordle Party 服务器启动中...")
		errCh <- srv.Start(runCtx)
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("服务器启动失败")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("正在关闭服务器...")

		timeout := cfg.Game.ShutdownTimeoutDuration()
		ctx, cancel := context.WithTimeout(context.Background(), timeout+10*time.Second)
		srv.GracefulShutdown(ctx, timeout)
		cancel()
	}
}

// openStore 按配置打开对局结果存储
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rs := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("🗄️ 使用 Redis 存储")
		return rs, nil

	case config.StorageSQLite:
		s, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("🗄️ 使用 SQLite 存储")
		return s, nil

	case config.StorageNone:
		log.Warn().Msg("未启用存储，对局结果不会保存")
		return storage.NopStore{}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
