package conn

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
)

type Connection interface {
	GetSession() *Session
	SendMessage(buf []byte) error
	Close()
}

type MessagePack struct {
	ConnID string
	Body   []byte
}

var (
	pongWait             = 10 * time.Second
	writeWait            = 10 * time.Second
	pingInterval         = (pongWait * 9) / 10
	maxMessageSize int64 = 4096
)

// LongConnection 一条 websocket 长连接
// 读写各占一个协程，写协程兼管 ping
type LongConnection struct {
	ConnID     string
	Conn       *websocket.Conn
	manager    *Manager
	WriteChan  chan []byte
	Session    *Session
	pingTicker *time.Ticker
	closeChan  chan struct{}
	closeOnce  sync.Once
}

func NewLongConnection(connID string, wsConn *websocket.Conn, manager *Manager) *LongConnection {
	return &LongConnection{
		ConnID:    connID,
		Conn:      wsConn,
		manager:   manager,
		WriteChan: make(chan []byte, 256),
		Session:   NewSession(connID),
		closeChan: make(chan struct{}),
	}
}

func (con *LongConnection) Run() {
	go con.readMessage()
	go con.writeMessage()
	con.Conn.SetPongHandler(con.pongHandler)
}

func (con *LongConnection) GetSession() *Session {
	return con.Session
}

func (con *LongConnection) SendMessage(buf []byte) error {
	select {
	case con.WriteChan <- buf:
		return nil
	case <-con.closeChan:
		return ErrConnectionClosed
	}
}

func (con *LongConnection) writeMessage() {
	con.pingTicker = time.NewTicker(pingInterval)
	defer con.pingTicker.Stop()

	for {
		select {
		case message := <-con.WriteChan:
			if err := con.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("客户端[%s] SetWriteDeadline err:%v", con.ConnID, err)
			}
			if err := con.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("客户端[%s] write err:%v", con.ConnID, err)
				con.Close()
				return
			}
		case <-con.pingTicker.C:
			if err := con.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("客户端[%s] ping SetWriteDeadline err:%v", con.ConnID, err)
			}
			if err := con.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error("客户端[%s] ping err:%v", con.ConnID, err)
				con.Close()
				return
			}
		case <-con.closeChan:
			return
		}
	}
}

func (con *LongConnection) readMessage() {
	defer con.manager.removeClient(con)

	con.Conn.SetReadLimit(maxMessageSize)
	if err := con.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error("客户端[%s] SetReadDeadline err:%v", con.ConnID, err)
		return
	}
	for {
		_, message, err := con.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("客户端[%s] 异常断开: %v", con.ConnID, err)
			}
			return
		}
		select {
		case con.manager.ClientReadChan <- &MessagePack{ConnID: con.ConnID, Body: message}:
		case <-con.closeChan:
			return
		}
	}
}

func (con *LongConnection) pongHandler(string) error {
	return con.Conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (con *LongConnection) Close() {
	con.closeOnce.Do(func() {
		close(con.closeChan)
		con.Conn.Close()
	})
}
