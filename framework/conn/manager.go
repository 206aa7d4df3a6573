package conn

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/jwts"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/game/share"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/node"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/stream"
)

var ErrConnectionClosed = errors.New("连接已关闭")

var websocketUpgrade = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:    4096,
	WriteBufferSize:   4096,
	EnableCompression: true,
}

const bucketCount = 32

type ClientBucket struct {
	sync.RWMutex
	clients map[string]Connection
}

// Manager websocket 网关
// 客户端消息套上信封转发到 game 节点 topic，收到 Push 再按 UserID 回落到本地连接
type Manager struct {
	topic      string // 本网关的 nats topic
	gameTopic  string // game 节点 topic
	jwtSecret  string
	bucketMask uint32

	clientBuckets  []*ClientBucket
	ClientReadChan chan *MessagePack

	MiddleWorker *node.NatsWorker

	userConns sync.Map // userID -> connID
}

func NewManager(topic, gameTopic, jwtSecret string) *Manager {
	m := &Manager{
		topic:          topic,
		gameTopic:      gameTopic,
		jwtSecret:      jwtSecret,
		bucketMask:     uint32(bucketCount - 1),
		ClientReadChan: make(chan *MessagePack, 2048),
		MiddleWorker:   node.NewNatsWorker(),
	}
	m.clientBuckets = make([]*ClientBucket, bucketCount)
	for i := range m.clientBuckets {
		m.clientBuckets[i] = &ClientBucket{clients: make(map[string]Connection)}
	}
	return m
}

// Run 启动网关：连 nats、起读协程、挂 /ws
func (m *Manager) Run(addr, natsURL string) error {
	handlers := make(node.LogicHandler)
	handlers["connector.push"] = m.handlePush
	m.MiddleWorker.RegisterHandlers(handlers)
	if err := m.MiddleWorker.Run(natsURL, m.topic); err != nil {
		return err
	}

	go m.clientReadRoutine()

	http.HandleFunc("/ws", m.upgradeFunc)
	log.Info("websocket 网关启动, addr:%s, topic:%s", addr, m.topic)
	return http.ListenAndServe(addr, nil)
}

func (m *Manager) upgradeFunc(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocketUpgrade.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket 升级失败: %v", err)
		return
	}
	con := NewLongConnection(uuid.NewString(), wsConn, m)
	m.bucketOf(con.ConnID).put(con)
	con.Run()
	log.Info("客户端[%s] 已连接", con.ConnID)
}

func (m *Manager) bucketOf(connID string) *ClientBucket {
	h := fnv.New32a()
	h.Write([]byte(connID))
	return m.clientBuckets[h.Sum32()&m.bucketMask]
}

func (b *ClientBucket) put(con Connection) {
	b.Lock()
	b.clients[con.GetSession().ConnID] = con
	b.Unlock()
}

func (b *ClientBucket) get(connID string) (Connection, bool) {
	b.RLock()
	defer b.RUnlock()
	con, ok := b.clients[connID]
	return con, ok
}

func (b *ClientBucket) remove(connID string) {
	b.Lock()
	delete(b.clients, connID)
	b.Unlock()
}

// clientReadRoutine 客户端入站消息转发到 game 节点
func (m *Manager) clientReadRoutine() {
	for pack := range m.ClientReadChan {
		con, ok := m.bucketOf(pack.ConnID).get(pack.ConnID)
		if !ok {
			continue
		}
		session := con.GetSession()

		// 客户端只发 {route, data}，网关补齐身份信息
		var inbound struct {
			Route string          `json:"route"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(pack.Body, &inbound); err != nil {
			log.Warn("客户端[%s] 消息格式错误: %v", pack.ConnID, err)
			continue
		}

		// 认证在网关本地完成，其余消息一律转发
		if inbound.Route == share.RouteAuthenticate {
			m.authenticate(con, inbound.Data)
			continue
		}
		if session.GetUserID() == "" {
			m.replyError(con, "请先认证")
			continue
		}

		msg := &stream.Message{
			Type:        stream.Request,
			Source:      m.topic,
			Destination: m.gameTopic,
			Route:       inbound.Route,
			UserID:      session.GetUserID(),
			ConnID:      pack.ConnID,
			Data:        inbound.Data,
		}
		raw, _ := json.Marshal(msg)
		if err := m.MiddleWorker.Publish(m.gameTopic, raw); err != nil {
			log.Error("转发到 game 节点失败: %v", err)
		}
	}
}

// authenticate 校验 token，通过后把 userID 绑到连接
func (m *Manager) authenticate(con Connection, data json.RawMessage) {
	var payload share.AuthPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		m.replyError(con, "认证消息格式错误")
		return
	}
	userID, err := jwts.ParseToken(payload.Token, m.jwtSecret)
	if err != nil {
		log.Warn("客户端[%s] 认证失败: %v", con.GetSession().ConnID, err)
		m.replyError(con, "认证失败")
		return
	}
	m.BindUser(userID, con.GetSession().ConnID)
	reply, _ := json.Marshal(map[string]any{
		"route": "authenticated",
		"data":  map[string]any{"userId": userID},
	})
	con.SendMessage(reply)
	log.Info("客户端[%s] 认证成功, user:%s", con.GetSession().ConnID, userID)
}

func (m *Manager) replyError(con Connection, message string) {
	reply, _ := json.Marshal(map[string]any{
		"route": "error",
		"data":  map[string]any{"message": message},
	})
	con.SendMessage(reply)
}

// handlePush game 节点回推，按 UserID 找到本地连接下发
func (m *Manager) handlePush(msg *stream.Message) any {
	var push stream.PushMessage
	if err := json.Unmarshal(msg.Data, &push); err != nil {
		log.Error("push 消息解析失败: %v", err)
		return nil
	}
	payload, _ := json.Marshal(map[string]any{
		"route": push.Route,
		"data":  json.RawMessage(push.Data),
	})
	for _, u := range push.Users {
		connID, ok := m.userConns.Load(u.UserID)
		if !ok {
			continue
		}
		con, ok := m.bucketOf(connID.(string)).get(connID.(string))
		if !ok {
			continue
		}
		if err := con.SendMessage(payload); err != nil {
			log.Warn("推送给用户 %s 失败: %v", u.UserID, err)
		}
	}
	return nil
}

// BindUser 认证通过后登记 userID 与连接的映射
func (m *Manager) BindUser(userID, connID string) {
	m.userConns.Store(userID, connID)
	if con, ok := m.bucketOf(connID).get(connID); ok {
		con.GetSession().SetUserID(userID)
	}
}

func (m *Manager) removeClient(con *LongConnection) {
	m.bucketOf(con.ConnID).remove(con.ConnID)
	if userID := con.Session.GetUserID(); userID != "" {
		m.userConns.Delete(userID)
		// 通知 game 节点该用户掉线
		msg := &stream.Message{
			Type:        stream.Request,
			Source:      m.topic,
			Destination: m.gameTopic,
			Route:       "connector.disconnect",
			UserID:      userID,
			ConnID:      con.ConnID,
		}
		raw, _ := json.Marshal(msg)
		if err := m.MiddleWorker.Publish(m.gameTopic, raw); err != nil {
			log.Warn("掉线通知发送失败, user:%s, err:%v", userID, err)
		}
	}
	con.Close()
	log.Info("客户端[%s] 已断开", con.ConnID)
}

func (m *Manager) Close() {
	if m.MiddleWorker != nil {
		m.MiddleWorker.Close()
	}
}
