package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/config"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/discovery"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/domain/entity"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/domain/repository"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/infrastructure/analytics"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/infrastructure/realtime"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/game/engines/amj"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/game/share"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/node"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/stream"
)

const persistTimeout = 3 * time.Second

// Worker game 节点的消息路由
// 入站消息定位到桌子后转成桌协程命令；出站统一经 Push 回各 connector
type Worker struct {
	NodeID       string
	cfg          config.GameConf
	TableManager *TableManager
	MiddleWorker *node.NatsWorker
	Monitor      *Monitor
	Registry     *discovery.Registry

	snapshots repository.SnapshotRepository
	actions   repository.ActionLogRepository
	records   repository.GameRecordRepository
	flags     *realtime.FeatureFlags
	router    *realtime.UserRouter
	sink      *analytics.Sink

	validator *amj.Validator
	patterns  []*amj.HandPattern

	// 持久化走单协程，保序且不占桌协程
	persistChan chan func()
	closeChan   chan struct{}
}

// Deps Worker 的外部依赖，由容器装配
type Deps struct {
	Snapshots repository.SnapshotRepository
	Actions   repository.ActionLogRepository
	Records   repository.GameRecordRepository
	Flags     *realtime.FeatureFlags
	Router    *realtime.UserRouter
	Validator *amj.Validator
	Patterns  []*amj.HandPattern
}

func NewWorker(nodeID string, cfg config.GameConf, deps Deps) *Worker {
	patterns := deps.Patterns
	if len(patterns) == 0 {
		patterns = amj.DefaultPatterns()
	}
	registry := discovery.NewRegistry()
	tableManager := NewTableManager()

	w := &Worker{
		NodeID:       nodeID,
		cfg:          cfg,
		TableManager: tableManager,
		MiddleWorker: node.NewNatsWorker(),
		Registry:     registry,
		snapshots:    deps.Snapshots,
		actions:      deps.Actions,
		records:      deps.Records,
		flags:        deps.Flags,
		router:       deps.Router,
		validator:    deps.Validator,
		patterns:     patterns,
		persistChan:  make(chan func(), 1024),
		closeChan:    make(chan struct{}),
	}
	w.Monitor = NewMonitor(tableManager, registry, 5*time.Second)
	w.sink = analytics.NewSink(w.MiddleWorker, cfg.AnalyticsSubject)
	return w
}

// Start 注册 etcd、挂路由、连 nats、起负载上报
func (w *Worker) Start(ctx context.Context, natsURL string, etcdConf config.EtcdConf) error {
	if err := w.Registry.Register(etcdConf, w.NodeID); err != nil {
		return fmt.Errorf("注册到 etcd 失败: %v", err)
	}
	log.Info("Game Worker[%s] 注册到 etcd 成功", w.NodeID)

	w.registerHandlers()

	if err := w.MiddleWorker.Run(natsURL, w.NodeID); err != nil {
		return fmt.Errorf("启动 NATS 监听失败: %v", err)
	}

	go w.persistRoutine()
	go w.Monitor.Start(ctx)

	log.Info("Game Worker[%s] 启动成功", w.NodeID)
	return nil
}

func (w *Worker) registerHandlers() {
	handlers := make(node.LogicHandler)
	handlers[share.RouteJoinTable] = w.handleJoinTable
	handlers[share.RouteLeaveTable] = w.handleLeaveTable
	handlers[share.RouteGameAction] = w.handleGameAction
	handlers[share.RouteCharlestonPass] = w.handleCharlestonPass
	handlers[share.RouteCharlestonDecision] = w.handleCharlestonDecision
	handlers[share.RouteReadyCheck] = w.handleReadyCheck
	handlers[share.RouteChatMessage] = w.handleChatMessage
	handlers[share.RouteReconnect] = w.handleReconnect
	handlers["connector.disconnect"] = w.handleDisconnect
	w.MiddleWorker.RegisterHandlers(handlers)
}

// ---- 入站处理 ----

func (w *Worker) handleJoinTable(msg *stream.Message) any {
	if msg.UserID == "" {
		return map[string]any{"success": false, "error": "未认证"}
	}
	var payload share.JoinTablePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return map[string]any{"success": false, "error": "消息格式错误"}
	}

	tableID := payload.TableID
	if tableID == "" {
		tableID = fmt.Sprintf("table_%s", uuid.NewString()[:8])
	}

	table, ok := w.TableManager.GetTable(tableID)
	if !ok {
		table = NewTable(tableID, w.cfg, w, w.validator, w.patterns)
		if err := w.TableManager.AddTable(table); err != nil {
			// 并发创建撞车，用已有的那张
			table, _ = w.TableManager.GetTable(tableID)
		}
	}
	if table == nil {
		return map[string]any{"success": false, "error": "桌子创建失败"}
	}

	w.TableManager.BindPlayer(msg.UserID, tableID)
	if w.router != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := w.router.Bind(ctx, msg.UserID, msg.Source); err != nil {
			log.Warn("用户路由登记失败, user:%s, err:%v", msg.UserID, err)
		}
		cancel()
	}

	userID, connectorID := msg.UserID, msg.Source
	table.Post(func() { table.HandleJoin(userID, connectorID) })
	return nil
}

func (w *Worker) handleLeaveTable(msg *stream.Message) any {
	table, ok := w.TableManager.GetPlayerTable(msg.UserID)
	if !ok {
		return nil
	}
	userID := msg.UserID
	table.Post(func() { table.HandleLeave(userID) })
	w.TableManager.UnbindPlayer(userID)
	if w.router != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := w.router.Unbind(ctx, userID); err != nil {
			log.Warn("用户路由注销失败, user:%s, err:%v", userID, err)
		}
		cancel()
	}
	return nil
}

func (w *Worker) handleGameAction(msg *stream.Message) any {
	table, ok := w.TableManager.GetPlayerTable(msg.UserID)
	if !ok {
		return map[string]any{"success": false, "error": "玩家不在任何桌上"}
	}
	var payload share.GameActionPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return map[string]any{"success": false, "error": "消息格式错误"}
	}
	userID := msg.UserID
	table.Post(func() { table.HandleGameAction(userID, &payload) })
	return nil
}

func (w *Worker) handleCharlestonPass(msg *stream.Message) any {
	table, ok := w.TableManager.GetPlayerTable(msg.UserID)
	if !ok {
		return map[string]any{"success": false, "error": "玩家不在任何桌上"}
	}
	var payload share.CharlestonPassPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return map[string]any{"success": false, "error": "消息格式错误"}
	}
	userID := msg.UserID
	table.Post(func() { table.HandleCharlestonPass(userID, payload.Tiles) })
	return nil
}

func (w *Worker) handleCharlestonDecision(msg *stream.Message) any {
	table, ok := w.TableManager.GetPlayerTable(msg.UserID)
	if !ok {
		return map[string]any{"success": false, "error": "玩家不在任何桌上"}
	}
	var payload share.CharlestonDecisionPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return map[string]any{"success": false, "error": "消息格式错误"}
	}
	userID := msg.UserID
	table.Post(func() { table.HandleCharlestonVote(userID, payload.Decision) })
	return nil
}

func (w *Worker) handleReadyCheck(msg *stream.Message) any {
	table, ok := w.TableManager.GetPlayerTable(msg.UserID)
	if !ok {
		return nil
	}
	var payload share.ReadyPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return nil
	}
	userID := msg.UserID
	table.Post(func() { table.HandleReady(userID, payload.Ready) })
	return nil
}

func (w *Worker) handleChatMessage(msg *stream.Message) any {
	table, ok := w.TableManager.GetPlayerTable(msg.UserID)
	if !ok {
		return nil
	}
	var payload share.ChatPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return nil
	}
	userID := msg.UserID
	table.Post(func() { table.HandleChat(userID, payload.Message) })
	return nil
}

func (w *Worker) handleReconnect(msg *stream.Message) any {
	table, ok := w.TableManager.GetPlayerTable(msg.UserID)
	if !ok {
		return map[string]any{"success": false, "error": "玩家不在任何桌上"}
	}
	userID, connectorID := msg.UserID, msg.Source
	if w.router != nil {
		// 重连可能换了网关，路由表跟着刷新
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		old, err := w.router.Lookup(ctx, userID)
		if err != nil {
			log.Warn("用户路由查询失败, user:%s, err:%v", userID, err)
		}
		if old != connectorID {
			if err := w.router.Bind(ctx, userID, connectorID); err != nil {
				log.Warn("用户路由更新失败, user:%s, err:%v", userID, err)
			}
		}
		cancel()
	}
	table.Post(func() { table.HandleJoin(userID, connectorID) })
	return nil
}

func (w *Worker) handleDisconnect(msg *stream.Message) any {
	table, ok := w.TableManager.GetPlayerTable(msg.UserID)
	if !ok {
		return nil
	}
	userID := msg.UserID
	table.Post(func() { table.HandleDisconnect(userID) })
	return nil
}

// ---- TableSink ----

// Push 按 connector 分组后经 nats 回推
func (w *Worker) Push(users []*share.UserInfo, route string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error("推送序列化失败, route:%s, err:%v", route, err)
		return
	}

	byConnector := make(map[string][]stream.PushUser)
	for _, u := range users {
		byConnector[u.ConnectorID] = append(byConnector[u.ConnectorID], stream.PushUser{
			UserID:      u.UserID,
			ConnectorID: u.ConnectorID,
		})
	}
	for connectorID, targets := range byConnector {
		push := &stream.PushMessage{Route: route, Data: payload, Users: targets}
		if err := w.MiddleWorker.Push(connectorID, push); err != nil {
			log.Error("推送失败, connector:%s, route:%s, err:%v", connectorID, route, err)
		}
	}
}

func (w *Worker) PersistState(tableID string, state *amj.GameState) {
	raw, err := json.Marshal(state)
	if err != nil {
		log.Error("快照序列化失败, table:%s, err:%v", tableID, err)
		return
	}
	snapshot := &entity.TableSnapshot{
		TableID: tableID,
		Seq:     state.Seq,
		Phase:   string(state.Phase),
		State:   raw,
	}
	w.enqueuePersist(func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := w.snapshots.Save(ctx, snapshot); err != nil {
			log.Error("快照写入失败, table:%s, seq:%d, err:%v", tableID, snapshot.Seq, err)
		}
	})
}

func (w *Worker) AppendAction(actionLog *entity.ActionLog) {
	w.enqueuePersist(func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := w.actions.Append(ctx, actionLog); err != nil {
			log.Error("动作日志写入失败, table:%s, err:%v", actionLog.TableID, err)
		}
	})
}

func (w *Worker) SaveRecord(record *entity.GameRecord) {
	w.enqueuePersist(func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := w.records.Save(ctx, record); err != nil {
			log.Error("对战记录写入失败, table:%s, err:%v", record.TableID, err)
		}
	})
}

func (w *Worker) Emit(tableID, userID, kind string, payload any) {
	w.sink.Emit(tableID, userID, kind, payload)
}

func (w *Worker) ChatEnabled() bool {
	if w.flags == nil {
		return false
	}
	return w.flags.Enabled(context.Background(), w.cfg.ChatFlagKey)
}

func (w *Worker) TableClosed(tableID string) {
	w.TableManager.RemoveTable(tableID)
}

// ---- 持久化协程 ----

func (w *Worker) enqueuePersist(fn func()) {
	select {
	case w.persistChan <- fn:
	default:
		// 落库积压时宁可丢一次快照也不能卡桌协程
		log.Warn("持久化队列已满，丢弃一次写入")
	}
}

func (w *Worker) persistRoutine() {
	for {
		select {
		case fn := <-w.persistChan:
			fn()
		case <-w.closeChan:
			return
		}
	}
}

func (w *Worker) Close() {
	close(w.closeChan)
	if w.Monitor != nil {
		w.Monitor.Stop()
	}
	if w.Registry != nil {
		w.Registry.Close()
	}
	if w.MiddleWorker != nil {
		w.MiddleWorker.Close()
	}
	log.Info("Game Worker[%s] 已关闭", w.NodeID)
}
