package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/config"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/core/domain/entity"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/game/engines/amj"
	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/framework/game/share"
)

// TableSink 桌子对外的全部出口，由 Worker 实现
// 桌协程只通过它广播、落库、埋点，自己不持有任何连接
type TableSink interface {
	Push(users []*share.UserInfo, route string, data any)
	PersistState(tableID string, state *amj.GameState)
	AppendAction(actionLog *entity.ActionLog)
	SaveRecord(record *entity.GameRecord)
	Emit(tableID, userID, kind string, payload any)
	ChatEnabled() bool
	TableClosed(tableID string)
}

// seatSlot 开局前的座位占位
type seatSlot struct {
	UserID     string
	IsBot      bool
	Difficulty amj.Difficulty
	Ready      bool
}

// Table 一桌对局，唯一的并发单元
// 所有状态变更都经 cmds 通道串行执行，引擎服务本身无状态
type Table struct {
	ID    string
	cfg   config.GameConf
	sink  TableSink
	users map[string]*share.UserInfo // 人类玩家会话

	charleston *amj.Charleston
	turns      *amj.TurnEngine
	bot        *amj.Bot
	validator  *amj.Validator
	patterns   []*amj.HandPattern

	seats     [4]*seatSlot
	state     *amj.GameState
	startTime time.Time
	corrupted bool // 牌张守恒被破坏后置位，桌子停摆

	cmds   chan func()
	closed chan struct{}
}

func NewTable(tableID string, cfg config.GameConf, sink TableSink, validator *amj.Validator, patterns []*amj.HandPattern) *Table {
	bot := amj.NewBot()
	t := &Table{
		ID:         tableID,
		cfg:        cfg,
		sink:       sink,
		users:      make(map[string]*share.UserInfo),
		charleston: amj.NewCharleston(bot),
		turns:      amj.NewTurnEngine(validator),
		bot:        bot,
		validator:  validator,
		patterns:   patterns,
		cmds:       make(chan func(), 256),
		closed:     make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *Table) loop() {
	for {
		select {
		case cmd := <-t.cmds:
			cmd()
		case <-t.closed:
			return
		}
	}
}

// Post 把一条命令排入桌协程
func (t *Table) Post(cmd func()) {
	select {
	case t.cmds <- cmd:
	case <-t.closed:
	}
}

// after 延时后把命令排入桌协程
func (t *Table) after(d time.Duration, cmd func()) {
	time.AfterFunc(d, func() {
		t.Post(cmd)
	})
}

func (t *Table) Close() {
	close(t.closed)
	t.sink.TableClosed(t.ID)
}

// ---- 入座与开局 ----

// HandleJoin 人类玩家加入
func (t *Table) HandleJoin(userID, connectorID string) {
	if user, ok := t.users[userID]; ok {
		// 重连：换网关、补快照
		t.handleReconnect(user, connectorID)
		return
	}
	if t.state != nil {
		t.sendError(userID, connectorID, "对局已开始，不能加入")
		return
	}

	seat := -1
	for i, s := range t.seats {
		if s == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		t.sendError(userID, connectorID, "桌子已满")
		return
	}

	t.seats[seat] = &seatSlot{UserID: userID}
	user := share.NewUserInfo(userID, connectorID, seat)
	t.users[userID] = user
	log.Info("Table[%s] 玩家 %s 入座 %d", t.ID, userID, seat)

	t.sendTo(user, share.PushTableJoined, map[string]any{
		"tableId": t.ID,
		"seat":    seat,
	})
	t.broadcast(share.PushPlayerJoined, map[string]any{
		"userId": userID,
		"seat":   seat,
	}, userID)
	t.sink.Emit(t.ID, userID, "player_joined", nil)

	if t.cfg.BotFill {
		t.fillBots()
	}
}

// fillBots 把空座位补成机器人
func (t *Table) fillBots() {
	for i, s := range t.seats {
		if s != nil {
			continue
		}
		t.seats[i] = &seatSlot{
			UserID:     fmt.Sprintf("bot-%s-%d", t.ID, i),
			IsBot:      true,
			Difficulty: amj.Difficulty(t.cfg.BotDifficulty),
			Ready:      true,
		}
		log.Info("Table[%s] 座位 %d 由机器人补位", t.ID, i)
		t.broadcast(share.PushPlayerJoined, map[string]any{
			"userId": t.seats[i].UserID,
			"seat":   i,
			"isBot":  true,
		})
	}
}

// HandleReady 准备/取消准备，全员就绪即发牌
func (t *Table) HandleReady(userID string, ready bool) {
	user, ok := t.users[userID]
	if !ok {
		return
	}
	slot := t.seats[user.Seat]
	if slot == nil || t.state != nil {
		return
	}
	slot.Ready = ready
	t.broadcast(share.PushPlayerReady, map[string]any{
		"userId": userID,
		"seat":   user.Seat,
		"ready":  ready,
	})

	t.maybeStart()
}

func (t *Table) maybeStart() {
	for _, s := range t.seats {
		if s == nil || !s.Ready {
			return
		}
	}
	t.startGame()
}

func (t *Table) startGame() {
	var participants [4]*amj.Participant
	for i, s := range t.seats {
		participants[i] = &amj.Participant{
			Seat:       i,
			UserID:     s.UserID,
			IsBot:      s.IsBot,
			Difficulty: s.Difficulty,
			Ready:      true,
		}
	}

	state, err := amj.NewGameState(t.ID, participants, t.cfg.ShuffleSeed)
	if err != nil {
		log.Error("Table[%s] 发牌失败: %v", t.ID, err)
		return
	}
	t.state = state
	t.startTime = time.Now()

	// 各座位只看到自己的手牌
	for _, user := range t.users {
		t.sendTo(user, share.PushGameStarted, map[string]any{
			"participants": t.participantList(),
			"playerState":  t.state.PlayerView(user.Seat),
			"gameState":    t.state.Snapshot(),
		})
	}
	t.persist(share.RouteReadyCheck, "", -1, nil)
	t.sink.Emit(t.ID, "", "game_started", map[string]any{"seed": t.state.Seed})

	info, err := t.charleston.Begin(t.state)
	if err != nil {
		log.Error("Table[%s] 查尔斯顿启动失败: %v", t.ID, err)
		return
	}
	t.broadcastCharlestonPhase(info)
	t.scheduleCharlestonBots()
}

// ---- 查尔斯顿 ----

// HandleCharlestonPass 人类提交传牌
func (t *Table) HandleCharlestonPass(userID string, tileIDs []int) {
	user, seat, ok := t.seatOf(userID)
	if !ok {
		return
	}
	if t.corrupted {
		t.sendTo(user, share.PushError, map[string]any{"message": "对局状态异常，本桌已停止"})
		return
	}
	result, err := t.charleston.SubmitPass(t.state, seat, tileIDs)
	if err != nil {
		t.sendTo(user, share.PushError, map[string]any{"message": err.Error()})
		return
	}
	t.persist(share.RouteCharlestonPass, userID, seat, tileIDs)
	t.applyCharlestonResult(result)
}

// HandleCharlestonVote 人类提交投票
func (t *Table) HandleCharlestonVote(userID string, decision string) {
	user, seat, ok := t.seatOf(userID)
	if !ok {
		return
	}
	if t.corrupted {
		t.sendTo(user, share.PushError, map[string]any{"message": "对局状态异常，本桌已停止"})
		return
	}
	result, err := t.charleston.SubmitVote(t.state, seat, decision)
	if err != nil {
		t.sendTo(user, share.PushError, map[string]any{"message": err.Error()})
		return
	}
	t.persist(share.RouteCharlestonDecision, userID, seat, decision)
	t.applyVoteResult(result)
}

// scheduleCharlestonBots 延时让机器人提交传牌/投票
// FillBot* 对已提交的座位是幂等的，重复排队无害
func (t *Table) scheduleCharlestonBots() {
	if t.state == nil || t.state.Phase != amj.PhaseCharleston {
		return
	}
	delay := t.bot.ThinkDelay(amj.Difficulty(t.cfg.BotDifficulty))
	voting := t.state.Charleston != nil && t.state.Charleston.Voting
	t.after(delay, func() {
		if t.corrupted || t.state == nil || t.state.Phase != amj.PhaseCharleston || t.state.Charleston == nil {
			return
		}
		if voting != t.state.Charleston.Voting {
			return
		}
		if voting {
			t.applyVoteResult(t.charleston.FillBotVotes(t.state))
			return
		}
		result, err := t.charleston.FillBotPasses(t.state)
		if err != nil {
			log.Error("Table[%s] 机器人传牌失败: %v", t.ID, err)
			return
		}
		t.applyCharlestonResult(result)
	})
}

func (t *Table) applyCharlestonResult(result *amj.ExchangeResult) {
	if result == nil {
		// 还有座位没交，继续等机器人
		t.scheduleCharlestonBots()
		return
	}

	// 收到的牌只私发对应座位
	for seat, tiles := range result.Received {
		if user := t.userAtSeat(seat); user != nil {
			t.sendTo(user, share.PushCharlestonReceived, map[string]any{
				"receivedTiles": tiles,
				"fromSeat":      amj.PassSource(result.Direction, seat),
				"phase":         result.Phase,
				"direction":     result.Direction,
			})
		}
	}
	t.persist(share.RouteCharlestonPass, "", -1, result.Phase)

	switch {
	case result.VotePending:
		t.broadcast(share.PushCharlestonDecision, map[string]any{
			"message": "是否进行第二轮换牌？",
		})
		t.scheduleCharlestonBots()
	case result.Finished:
		t.broadcast(share.PushCharlestonEnded, map[string]any{
			"gameState": t.state.Snapshot(),
			"message":   "查尔斯顿结束，开始行牌",
		})
		t.sink.Emit(t.ID, "", "charleston_ended", nil)
		t.progress()
	default:
		t.broadcastCharlestonPhase(result.NextPhase)
		t.scheduleCharlestonBots()
	}
}

func (t *Table) applyVoteResult(result *amj.VoteResult) {
	if result == nil {
		return
	}
	t.broadcast(share.PushCharlestonVotes, map[string]any{
		"votesReceived": result.VotesReceived,
		"votesRequired": result.VotesRequired,
	})
	if !result.Decided {
		t.scheduleCharlestonBots()
		return
	}
	t.persist(share.RouteCharlestonDecision, "", -1, result.Continue)
	t.broadcastCharlestonPhase(result.NextPhase)
	t.scheduleCharlestonBots()
}

func (t *Table) broadcastCharlestonPhase(info *amj.PhaseInfo) {
	if info == nil {
		return
	}
	t.broadcast(share.PushCharlestonPhase, map[string]any{
		"phase":         info.Phase,
		"phaseName":     info.PhaseName,
		"direction":     info.Direction,
		"requiredTiles": info.RequiredTiles,
		"gameState":     t.state.Snapshot(),
	})
}

// ---- 行牌 ----

// HandleGameAction 人类行牌动作
func (t *Table) HandleGameAction(userID string, payload *share.GameActionPayload) {
	user, seat, ok := t.seatOf(userID)
	if !ok {
		return
	}
	if t.corrupted {
		t.sendTo(user, share.PushError, map[string]any{"message": "对局状态异常，本桌已停止"})
		return
	}

	var result any
	var err error
	switch payload.Action {
	case share.ActionDrawTile:
		result, err = t.turns.Draw(t.state, seat)
	case share.ActionDiscardTile:
		var p share.DiscardPayload
		if err = json.Unmarshal(payload.Data, &p); err == nil {
			result, err = t.turns.Discard(t.state, seat, p.TileID)
		}
	case share.ActionCallTile:
		var p share.CallPayload
		if err = json.Unmarshal(payload.Data, &p); err == nil {
			err = t.turns.SubmitCall(t.state, seat, amj.MeldKind(p.Kind))
			result = map[string]any{"claimed": true}
		}
	case share.ActionExposeMeld:
		var p share.ExposePayload
		if err = json.Unmarshal(payload.Data, &p); err == nil {
			result, err = t.turns.Expose(t.state, seat, amj.MeldKind(p.Kind), p.TileIDs)
		}
	case share.ActionDeclareMahjong:
		var win *amj.WinResult
		win, err = t.turns.DeclareWin(t.state, seat, t.patterns)
		if err == nil && !win.Accepted {
			// 驳回只告知声明者，牌局继续
			t.sendTo(user, share.PushGameAction, map[string]any{
				"action":   payload.Action,
				"playerId": userID,
				"result":   win,
			})
			return
		}
		result = win
	default:
		err = fmt.Errorf("未知动作 %s", payload.Action)
	}
	if err != nil {
		t.sendTo(user, share.PushError, map[string]any{"message": err.Error()})
		return
	}

	t.afterAction(payload.Action, userID, seat, result)
}

// afterAction 动作被接受后的统一后续：先广播，再落库，再推进
func (t *Table) afterAction(action, userID string, seat int, result any) {
	redacted := result
	if action == share.ActionDrawTile {
		// 摸到的具体牌只发给本人
		if dr, ok := result.(*amj.DrawResult); ok {
			if user := t.userAtSeat(seat); user != nil {
				t.sendTo(user, share.PushGameAction, map[string]any{
					"action":    action,
					"playerId":  userID,
					"result":    dr,
					"gameState": t.state.Snapshot(),
				})
			}
			masked := *dr
			masked.Tile = nil
			redacted = &masked
		}
	}
	t.broadcast(share.PushGameAction, map[string]any{
		"action":    action,
		"playerId":  userID,
		"result":    redacted,
		"gameState": t.state.Snapshot(),
	}, t.drawOriginator(action, seat)...)

	t.persist(action, userID, seat, result)
	t.sink.Emit(t.ID, userID, action, nil)
	t.progress()
}

func (t *Table) drawOriginator(action string, seat int) []string {
	if action != share.ActionDrawTile {
		return nil
	}
	if user := t.userAtSeat(seat); user != nil {
		return []string{user.UserID}
	}
	return nil
}

// progress 每次状态变更后的推进器
// 负责收尾、开叫牌窗口计时、安排机器人回合和人类超时
func (t *Table) progress() {
	gs := t.state
	if gs == nil {
		return
	}

	if err := gs.CheckConservation(); err != nil {
		// 唯一的致命错误：状态不可信，立即停摆，不再接受任何变更
		t.corrupted = true
		log.Error("Table[%s] 牌数守恒被破坏，停止该桌: %v", t.ID, err)
		t.broadcast(share.PushError, map[string]any{
			"message": "对局状态异常，本桌已停止",
		})
		return
	}

	if gs.Phase == amj.PhaseFinished {
		t.finishGame()
		return
	}
	if gs.Phase != amj.PhasePlaying {
		return
	}

	if gs.CallOpen {
		t.openCallWindow()
		return
	}

	p := gs.Players[gs.Current]
	if p.IsBot {
		seq := gs.Seq
		seat := gs.Current
		t.after(t.bot.ThinkDelay(p.Difficulty), func() {
			t.runBotTurn(seat, seq)
		})
		return
	}

	// 人类超时后由机器人代打
	if t.cfg.TurnTimeoutSec > 0 {
		seq := gs.Seq
		seat := gs.Current
		t.after(time.Duration(t.cfg.TurnTimeoutSec)*time.Second, func() {
			if t.state == nil || t.state.Seq != seq {
				return // 本人已行动，过期回调作废
			}
			log.Warn("Table[%s] 座位 %d 超时，由机器人代打", t.ID, seat)
			t.runBotTurn(seat, seq)
		})
	}
}

// runBotTurn 执行一步机器人决策
// seq 是排程时看到的序号，对不上说明窗口已被人类抢先，直接作废
func (t *Table) runBotTurn(seat int, seq uint64) {
	gs := t.state
	if t.corrupted || gs == nil || gs.Phase != amj.PhasePlaying || gs.Seq != seq || gs.Current != seat {
		return
	}

	p := gs.Players[seat]
	difficulty := p.Difficulty
	if !p.IsBot {
		difficulty = amj.Difficulty(t.cfg.BotDifficulty)
	}
	action := t.bot.Decide(gs, seat, t.patterns, t.validator)

	var result any
	var err error
	var route string
	switch action.Type {
	case amj.BotDraw:
		route = share.ActionDrawTile
		result, err = t.turns.Draw(gs, seat)
	case amj.BotMahjong:
		route = share.ActionDeclareMahjong
		var win *amj.WinResult
		win, err = t.turns.DeclareWin(gs, seat, t.patterns)
		if err == nil && !win.Accepted {
			return
		}
		result = win
	default:
		route = share.ActionDiscardTile
		tileID := action.TileID
		if !p.IsBot {
			tileID = t.bot.ChooseDiscard(p.Rack, difficulty)
		}
		result, err = t.turns.Discard(gs, seat, tileID)
	}
	if err != nil {
		log.Error("Table[%s] 机器人座位 %d 动作失败: %v", t.ID, seat, err)
		return
	}
	t.afterAction(route, p.UserID, seat, result)
}

// openCallWindow 打出一张后开窗：机器人立刻表态，窗口到时统一结算
func (t *Table) openCallWindow() {
	gs := t.state
	discard := gs.LastDiscard
	if discard == nil {
		return
	}

	for seat, p := range gs.Players {
		if !p.IsBot || seat == gs.LastDiscardSeat {
			continue
		}
		if kind, ok := t.bot.ShouldCall(p.Rack, *discard, p.Difficulty); ok {
			if err := t.turns.SubmitCall(gs, seat, kind); err != nil {
				log.Debug("Table[%s] 机器人座位 %d 叫牌被拒: %v", t.ID, seat, err)
			}
		}
	}

	tileID := discard.ID
	t.after(time.Duration(t.cfg.CallWindowMs)*time.Millisecond, func() {
		gs := t.state
		if t.corrupted || gs == nil || !gs.CallOpen || gs.LastDiscard == nil || gs.LastDiscard.ID != tileID {
			return
		}
		outcome, err := t.turns.CloseCallWindow(gs)
		if err != nil {
			log.Error("Table[%s] 叫牌结算失败: %v", t.ID, err)
		}
		if outcome == nil {
			return
		}
		t.broadcast(share.PushGameAction, map[string]any{
			"action":    share.ActionCallTile,
			"result":    outcome,
			"gameState": gs.Snapshot(),
		})
		t.persist(share.ActionCallTile, "", -1, outcome)
		t.progress()
	})
}

func (t *Table) finishGame() {
	gs := t.state
	reason := amj.EndWallExhausted
	if gs.Winner >= 0 {
		reason = amj.EndMahjong
	}

	results := make([]entity.SeatResult, 0, 4)
	for i, p := range gs.Players {
		r := entity.SeatResult{
			Seat:   i,
			UserID: p.UserID,
			IsBot:  p.IsBot,
			IsWin:  gs.Winner == i,
		}
		if r.IsWin {
			r.Pattern = gs.WinPattern
		}
		results = append(results, r)
	}

	t.broadcast(share.PushGameEnded, map[string]any{
		"reason":     string(reason),
		"winner":     gs.Winner,
		"winPattern": gs.WinPattern,
		"gameState":  gs.Snapshot(),
	})
	t.sink.SaveRecord(entity.NewGameRecord(t.ID, gs.Seed, string(reason), results, t.startTime))
	t.sink.Emit(t.ID, "", "game_ended", map[string]any{"reason": string(reason)})
	log.Info("Table[%s] 对局结束, reason:%s, winner:%d", t.ID, reason, gs.Winner)
	t.Close()
}

// ---- 聊天 / 离线 / 重连 ----

func (t *Table) HandleChat(userID, message string) {
	user, ok := t.users[userID]
	if !ok {
		return
	}
	if !t.sink.ChatEnabled() {
		t.sendTo(user, share.PushError, map[string]any{"message": "聊天功能未开启"})
		return
	}
	t.broadcast(share.PushChatMessage, map[string]any{
		"userId":  userID,
		"message": message,
	})
}

func (t *Table) HandleLeave(userID string) {
	user, ok := t.users[userID]
	if !ok {
		return
	}
	if t.state == nil {
		// 开局前离开直接腾出座位
		t.seats[user.Seat] = nil
		delete(t.users, userID)
	} else {
		user.SetOffline()
	}
	t.broadcast(share.PushPlayerLeft, map[string]any{
		"userId": userID,
		"seat":   user.Seat,
	}, userID)
	t.sink.Emit(t.ID, userID, "player_left", nil)
}

// HandleDisconnect 掉线只标记离线，座位保留
func (t *Table) HandleDisconnect(userID string) {
	user, ok := t.users[userID]
	if !ok {
		return
	}
	user.SetOffline()
	t.broadcast(share.PushPlayerDisconnected, map[string]any{
		"userId": userID,
		"seat":   user.Seat,
	}, userID)
}

func (t *Table) handleReconnect(user *share.UserInfo, connectorID string) {
	user.SetOnline(connectorID)
	payload := map[string]any{
		"tableId": t.ID,
		"seat":    user.Seat,
	}
	if t.state != nil {
		payload["gameState"] = t.state.Snapshot()
		payload["playerState"] = t.state.PlayerView(user.Seat)
	}
	t.sendTo(user, share.PushTableJoined, payload)
	log.Info("Table[%s] 玩家 %s 重连", t.ID, user.UserID)
}

// ---- 工具 ----

func (t *Table) seatOf(userID string) (*share.UserInfo, int, bool) {
	user, ok := t.users[userID]
	if !ok || t.state == nil {
		return nil, -1, false
	}
	return user, user.Seat, true
}

func (t *Table) userAtSeat(seat int) *share.UserInfo {
	for _, user := range t.users {
		if user.Seat == seat {
			return user
		}
	}
	return nil
}

func (t *Table) participantList() []map[string]any {
	list := make([]map[string]any, 0, 4)
	for i, s := range t.seats {
		list = append(list, map[string]any{
			"seat":   i,
			"userId": s.UserID,
			"isBot":  s.IsBot,
		})
	}
	return list
}

// broadcast 对所有在线人类广播，exclude 里的用户除外
func (t *Table) broadcast(route string, data any, exclude ...string) {
	targets := make([]*share.UserInfo, 0, len(t.users))
	for _, user := range t.users {
		if !user.IsOnline {
			continue
		}
		skip := false
		for _, ex := range exclude {
			if user.UserID == ex {
				skip = true
				break
			}
		}
		if !skip {
			targets = append(targets, user)
		}
	}
	if len(targets) > 0 {
		t.sink.Push(targets, route, data)
	}
}

func (t *Table) sendTo(user *share.UserInfo, route string, data any) {
	if user.IsOnline {
		t.sink.Push([]*share.UserInfo{user}, route, data)
	}
}

func (t *Table) sendError(userID, connectorID string, message string) {
	u := share.NewUserInfo(userID, connectorID, -1)
	t.sink.Push([]*share.UserInfo{u}, share.PushError, map[string]any{"message": message})
}

// persist 广播之后才落库，写失败只记日志，不回滚已广播的状态
func (t *Table) persist(action, userID string, seat int, payload any) {
	if t.state == nil {
		return
	}
	t.sink.PersistState(t.ID, t.state)
	data, _ := json.Marshal(payload)
	t.sink.AppendAction(entity.NewActionLog(t.ID, t.state.Seq, userID, seat, action, data))
}
