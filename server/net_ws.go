package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"snakerooms/game"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	sendQueue  = 64
	readLimit  = 1 << 16
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws        *websocket.Conn
	send      chan []byte
	frameType int

	done      chan struct{}
	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn, frameType int) *ClientConn {
	return &ClientConn{
		ws:        ws,
		send:      make(chan []byte, sendQueue),
		frameType: frameType,
		done:      make(chan struct{}),
	}
}

// Send 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Send(b []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		// 为了实时性，丢弃本帧（防止阻塞 Tick）
		return errSendQueueFull
	}
}

// Close 通知写协程退出并关闭底层连接；可重复调用
func (c *ClientConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(c.frameType, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// flush 关闭前尽量写出已排队的帧（例如 not-found）
func (c *ClientConn) flush() {
	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(c.frameType, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// readPump 读取客户端输入并注入房间
func (c *ClientConn) readPump(room *Room, id game.PlayerID, codec Codec) {
	// 读泵退出时，从房间移除该玩家
	defer func() {
		room.Leave(id)
		_ = c.Close()
	}()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("read error", "room", room.ID, "player", id, "err", err)
			}
			return
		}
		in, err := codec.Decode(payload)
		if err != nil {
			continue
		}
		switch in.Type {
		case MsgMove:
			room.OnDirectionInput(id, in.Key)
		case MsgPlay:
			room.OnPlayEvent(id, in.Play)
		case MsgChat:
			room.OnChatMessage(id, in.Text)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：/ws?room=<id>；不带 room 时新建房间并下发 created
func HandleWS(m *RoomManager, codec Codec) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		roomID := ctx.Query("room")

		ws, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			Log.Warnw("upgrade error", "err", err)
			return
		}
		client := NewClientConn(ws, codec.FrameType())
		go client.writePump()

		if roomID == "" {
			roomID = m.CreateRoom()
			sendEvent(client, codec, EventCreated, roomID)
		}

		id := game.PlayerID(uuid.NewString())
		room, err := m.JoinRoom(roomID, id, client)
		if err != nil {
			sendEvent(client, codec, EventNotFound, roomID)
			_ = client.Close()
			return
		}
		go client.readPump(room, id, codec)
	}
}

func sendEvent(c Conn, codec Codec, t string, payload any) {
	b, err := codec.Encode(t, payload)
	if err != nil {
		return
	}
	_ = c.Send(b)
}
