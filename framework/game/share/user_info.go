package share

// UserInfo 桌上一个人类玩家的会话信息
type UserInfo struct {
	UserID      string // 用户 ID
	ConnectorID string // 所在网关的 topic，主动推送用
	IsOnline    bool   // 是否在线
	Seat        int    // 座位索引 0-3
}

func NewUserInfo(userID, connectorID string, seat int) *UserInfo {
	return &UserInfo{
		UserID:      userID,
		ConnectorID: connectorID,
		IsOnline:    true,
		Seat:        seat,
	}
}

func (u *UserInfo) SetOffline() {
	u.IsOnline = false
}

func (u *UserInfo) SetOnline(connectorID string) {
	u.IsOnline = true
	u.ConnectorID = connectorID
}
