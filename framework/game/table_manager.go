package game

import (
	"fmt"
	"sync"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
)

// TableManager 桌子注册表 + 玩家到桌子的路由
// 自身只做查找定位，对局状态变更一律由桌协程处理
type TableManager struct {
	mu           sync.RWMutex
	tables       map[string]*Table // tableID -> Table
	playerTables map[string]string // userID -> tableID
}

func NewTableManager() *TableManager {
	return &TableManager{
		tables:       make(map[string]*Table),
		playerTables: make(map[string]string),
	}
}

func (m *TableManager) AddTable(t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tables[t.ID]; exists {
		return fmt.Errorf("桌子 %s 已存在", t.ID)
	}
	m.tables[t.ID] = t
	log.Info("TableManager 新建桌子 %s", t.ID)
	return nil
}

func (m *TableManager) GetTable(tableID string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[tableID]
	return t, ok
}

func (m *TableManager) RemoveTable(tableID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tables, tableID)
	for userID, tid := range m.playerTables {
		if tid == tableID {
			delete(m.playerTables, userID)
		}
	}
	log.Info("TableManager 移除桌子 %s", tableID)
}

// BindPlayer 登记玩家所在的桌子
func (m *TableManager) BindPlayer(userID, tableID string) {
	m.mu.Lock()
	m.playerTables[userID] = tableID
	m.mu.Unlock()
}

func (m *TableManager) UnbindPlayer(userID string) {
	m.mu.Lock()
	delete(m.playerTables, userID)
	m.mu.Unlock()
}

// GetPlayerTable 找到玩家所在的桌子
func (m *TableManager) GetPlayerTable(userID string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tableID, ok := m.playerTables[userID]
	if !ok {
		return nil, false
	}
	t, ok := m.tables[tableID]
	return t, ok
}

// GetStats 桌数和已绑定玩家数，供负载上报
func (m *TableManager) GetStats() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables), len(m.playerTables)
}
