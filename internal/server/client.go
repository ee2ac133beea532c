package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/palemoky/wordle-party/internal/apperrors"
	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 发送缓冲区大小
	sendBufferSize = 256

	// 超速警告次数超过该值断开连接
	maxRateWarnings = 5
)

// Client 一条 WebSocket 连接
type Client struct {
	id string
	ip string

	server  *Server
	conn    *websocket.Conn
	send    chan *protocol.Message
	limiter *rate.Limiter

	mu       sync.RWMutex
	format   codec.Format
	warnings int
	closed   bool
}

// NewClient 创建新客户端，回包格式默认跟随服务器配置，收到第一帧后改为跟随客户端
func NewClient(s *Server, conn *websocket.Conn, ip string) *Client {
	return &Client{
		id:      uuid.NewString(),
		ip:      ip,
		server:  s,
		conn:    conn,
		send:    make(chan *protocol.Message, sendBufferSize),
		limiter: newMessageLimiter(s.config.Security.MessageLimit),
		format:  s.format,
	}
}

// ID 连接 ID
func (c *Client) ID() string { return c.id }

// Send 非阻塞发送，缓冲区满时关闭连接
func (c *Client) Send(msg *protocol.Message) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	select {
	case c.send <- msg:
		c.mu.RUnlock()
	default:
		c.mu.RUnlock()
		log.Warn().Str("conn", c.id).Str("ip", c.ip).Msg("⚠️ 发送缓冲区已满，关闭连接")
		c.Close()
	}
}

// Close 关闭发送通道，WritePump 随后发送关闭帧并退出
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) getFormat() codec.Format {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.format
}

func (c *Client) setFormat(f codec.Format) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
}

// allowMessage 检查消息速率，返回是否放行以及是否应该断开
func (c *Client) allowMessage() (allowed, kick bool) {
	if c.limiter.Allow() {
		return true, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings++
	return false, c.warnings > maxRateWarnings
}

// ReadPump 从 WebSocket 读取消息
func (c *Client) ReadPump() {
	defer func() {
		c.server.unregisterClient(c)
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		c.server.handler.Disconnect(ctx, c.id)
		cancel()
		c.Close()
		_ = c.conn.Close()
		<-c.server.semaphore
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", c.id).Msg("读取错误")
			}
			return
		}

		allowed, kick := c.allowMessage()
		if kick {
			log.Warn().Str("conn", c.id).Str("ip", c.ip).Msg("🚫 多次超速，断开连接")
			return
		}
		if !allowed {
			c.Send(codec.NewErrorMessage(apperrors.ErrRateLimited))
			continue
		}

		c.setFormat(codec.Detect(data))
		msg, err := codec.Decode(data)
		if err != nil {
			log.Debug().Err(err).Str("conn", c.id).Int("size", len(data)).Msg("消息解析错误")
			c.Send(codec.NewErrorMessage(apperrors.ErrInvalidMessage))
			continue
		}

		c.server.handler.Handle(context.Background(), c, msg)
		codec.PutMessage(msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			format := c.getFormat()
			data, err := codec.Encode(msg, format)
			if err != nil {
				log.Error().Err(err).Str("conn", c.id).Str("type", string(msg.Type)).Msg("消息编码错误")
				continue
			}
			frameType := websocket.TextMessage
			if format == codec.FormatProtobuf {
				frameType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(frameType, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
