// Package client 是无界面的 WebSocket 客户端，维护自己的 State 并支持断线重连。
package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/wordle-party/internal/protocol"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 心跳检测间隔
	heartbeatInterval = 5 * time.Second
	// 默认最大重连次数
	defaultMaxReconnectAttempts = 5
	// 默认首次重连间隔
	defaultReconnectInterval = 2 * time.Second
	// 最大退避时间
	maxReconnectBackoff = 30 * time.Second

	sendBufferSize  = 256
	eventBufferSize = 256
)

var (
	ErrClosed     = errors.New("client: connection closed")
	ErrBufferFull = errors.New("client: send buffer full")
	ErrNoToken    = errors.New("client: no reconnect token")
)

// Config 客户端参数
type Config struct {
	URL                  string
	Name                 string
	Format               codec.Format // 发送帧格式，默认 JSON
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
}

// Client WebSocket 客户端
type Client struct {
	cfg    Config
	dialer websocket.Dialer

	events chan *protocol.Message
	done   chan struct{}

	mu      sync.RWMutex
	conn    *websocket.Conn
	send    chan []byte
	state   State
	latency time.Duration
	closed  bool

	reconnecting atomic.Bool
}

// New 创建客户端
func New(cfg Config) *Client {
	if cfg.Format == "" {
		cfg.Format = codec.FormatJSON
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	return &Client{
		cfg:    cfg,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		events: make(chan *protocol.Message, eventBufferSize),
		done:   make(chan struct{}),
		state:  NewState(cfg.Name),
	}
}

// Connect 连接服务器
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}
	c.attach(conn)
	return nil
}

// attach 为新连接启动读写协程
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.send = make(chan []byte, sendBufferSize)
	send := c.send
	c.mu.Unlock()

	stop := make(chan struct{})
	go c.readPump(conn, stop)
	go c.writePump(conn, send, stop)
}

// State 当前状态
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Latency 最近一次心跳往返时间
func (c *Client) Latency() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latency
}

// Events 已应用到状态的服务端消息
func (c *Client) Events() <-chan *protocol.Message { return c.events }

// Done 客户端关闭后关闭
func (c *Client) Done() <-chan struct{} { return c.done }

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool { return c.reconnecting.Load() }

// Send 发送消息
func (c *Client) Send(msg *protocol.Message) error {
	data, err := codec.Encode(msg, c.cfg.Format)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.send == nil {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// WaitFor 等待下一条指定类型的消息，期间收到的其他消息被丢弃
func (c *Client) WaitFor(ctx context.Context, types ...protocol.MessageType) (*protocol.Message, error) {
	for {
		select {
		case msg := <-c.events:
			if slices.Contains(types, msg.Type) {
				return msg, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %v: %w", types, ctx.Err())
		case <-c.done:
			return nil, ErrClosed
		}
	}
}

// Close 关闭连接，不再重连
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// handle 把消息应用到状态，并投递到事件通道
func (c *Client) handle(msg *protocol.Message) {
	c.mu.Lock()
	if next, err := c.state.Apply(msg); err == nil {
		c.state = next
	}
	if msg.Type == protocol.MsgPong {
		if p, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
			c.latency = time.Duration(time.Now().UnixMilli()-p.ClientTimestamp) * time.Millisecond
		}
	}
	if msg.Type == protocol.MsgReconnected || msg.Type == protocol.MsgError {
		c.reconnecting.Store(false)
	}
	c.mu.Unlock()

	select {
	case c.events <- msg:
	case <-c.done:
	}
}
