package client

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/logger"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// Reconnect 在当前连接上发送重连请求
func (c *Client) Reconnect() error {
	s := c.State()
	if s.ReconnectToken == "" || s.PlayerID == "" {
		return ErrNoToken
	}
	return c.Send(codec.MustNewMessage(protocol.MsgReconnect, protocol.ReconnectPayload{
		Token:    s.ReconnectToken,
		PlayerID: s.PlayerID,
	}))
}

// StartHeartbeat 启动心跳，客户端关闭后退出
func (c *Client) StartHeartbeat() {
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = c.Ping()
			case <-c.done:
				return
			}
		}
	}()
}

// tryReconnect 指数退避重连，成功建立连接后发送重连请求
func (c *Client) tryReconnect() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			c.reconnecting.Store(false)
		}
	}()

	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}

	backoff := c.cfg.ReconnectInterval
	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		log.Info().Int("attempt", attempt).Int("max", c.cfg.MaxReconnectAttempts).Msg("🔄 尝试重连")

		select {
		case <-time.After(backoff):
		case <-c.done:
			return
		}
		backoff = min(backoff*2, maxReconnectBackoff)

		ctx, cancel := context.WithTimeout(context.Background(), c.dialer.HandshakeTimeout)
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		cancel()
		if err != nil {
			log.Debug().Err(err).Msg("重连失败")
			continue
		}

		c.attach(conn)
		if err := c.Reconnect(); err != nil {
			_ = conn.Close()
			continue
		}
		// 结果通过 reconnected 或 error 消息返回
		return
	}

	log.Warn().Msg("❌ 重连失败，已达最大尝试次数")
	c.reconnecting.Store(false)
	c.Close()
}
