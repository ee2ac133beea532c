package client

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/wordle-party/internal/logger"
	"github.com/palemoky/wordle-party/internal/protocol/codec"
)

// readPump 从服务器读取消息，连接断开后尝试重连
func (c *Client) readPump(conn *websocket.Conn, stop chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		close(stop)
		_ = conn.Close()

		if c.isClosed() {
			return
		}
		if c.State().ReconnectToken != "" && !c.reconnecting.Load() {
			go c.tryReconnect()
			return
		}
		c.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("连接异常断开")
			}
			return
		}

		msg, err := codec.Decode(data)
		if err != nil {
			log.Warn().Err(err).Int("size", len(data)).Msg("消息解析错误")
			continue
		}
		c.handle(msg)
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump(conn *websocket.Conn, send chan []byte, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.cfg.Format == codec.FormatProtobuf {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case data := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(frameType, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-stop:
			return
		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
