package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mileusna/useragent"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 1 << 16
)

// ClientConn 把一个 WebSocket 连接接到会话上：读协程喂 OnMessage，写协程排空 Outbox
type ClientConn struct {
	ws      *websocket.Conn
	session *Session
	metrics *ArenaMetrics
}

func NewClientConn(ws *websocket.Conn, session *Session, metrics *ArenaMetrics) *ClientConn {
	return &ClientConn{ws: ws, session: session, metrics: metrics}
}

// writePump 独立协程，负责从出站队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	out := c.session.Outbox().C()
	for {
		select {
		case msg, ok := <-out:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 会话已断开，礼貌地关闭连接
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.metrics.IncDeliveryFailures()
				c.session.OnDisconnect(errors.Join(ErrDeliveryFailure, err).Error())
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.metrics.IncDeliveryFailures()
				c.session.OnDisconnect(errors.Join(ErrDeliveryFailure, err).Error())
				return
			}
		}
	}
}

// readPump 读取客户端输入交给会话；退出时即视为断开
func (c *ClientConn) readPump() {
	reason := "closed"
	defer func() {
		c.session.OnDisconnect(reason)
		_ = c.ws.Close()
	}()
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			reason = err.Error()
			return
		}
		c.session.OnMessage(payload)
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

// HandleWS WebSocket 接入：每个连接一个会话
func (a *Arena) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "err", err)
		return
	}

	session := a.NewSession()
	client := NewClientConn(ws, session, a.Metrics)
	go client.writePump()

	id, err := session.OnConnect()
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			Log.Fatalw("player id generator produced a duplicate", "err", err)
		}
		Log.Errorw("connect failed", "conn", session.ConnID, "err", err)
		session.OnDisconnect(err.Error())
		return
	}

	ua := useragent.Parse(r.UserAgent())
	Log.Infow("player connected",
		"player", id,
		"conn", session.ConnID,
		"remote", r.RemoteAddr,
		"browser", ua.Name,
		"os", ua.OS,
		"players", a.World.Count(),
	)
	go client.readPump()
}
