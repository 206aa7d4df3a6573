package conn

import (
	"sync"
)

// Session 连接上的用户态
type Session struct {
	sync.RWMutex
	ConnID  string
	UserID  string
	TableID string
}

func NewSession(connID string) *Session {
	return &Session{ConnID: connID}
}

func (s *Session) SetUserID(userID string) {
	s.Lock()
	s.UserID = userID
	s.Unlock()
}

func (s *Session) GetUserID() string {
	s.RLock()
	defer s.RUnlock()
	return s.UserID
}

func (s *Session) SetTableID(tableID string) {
	s.Lock()
	s.TableID = tableID
	s.Unlock()
}

func (s *Session) GetTableID() string {
	s.RLock()
	defer s.RUnlock()
	return s.TableID
}
