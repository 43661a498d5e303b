// Package chat 实现了实时消息系统的核心服务层
// presence.go
// 核心职责：在线状态登记表
// 1. 维护 用户ID -> 连接集合 的映射，同一用户可持有多条连接（多标签页/多设备）
// 2. 用户从 0 条连接变为 1 条时触发上线回调，从 1 条变为 0 条时触发下线回调
// 3. 本进程内存是在线状态的权威来源，数据库和 Redis 只做旁路镜像
package chat

import (
	"sync"

	"go.uber.org/zap"
)

// PresenceObserver 在线状态变化的观察者
// 由 user service 实现：回写数据库 is_online/last_seen，并异步维护 Redis 在线集合
type PresenceObserver interface {
	// UserOnline 用户首条连接建立时调用
	UserOnline(userID int64)
	// UserOffline 用户最后一条连接断开时调用
	UserOffline(userID int64)
}

// PresenceRegistry 在线状态登记表
// 内层 map 的 Key 为连接 ID (uuid)，保证同一用户的多条连接互不覆盖
type PresenceRegistry struct {
	mu       sync.RWMutex
	conns    map[int64]map[string]*UserConn
	observer PresenceObserver
}

// NewPresenceRegistry 创建在线状态登记表
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		conns: make(map[int64]map[string]*UserConn),
	}
}

// SetObserver 注册在线状态观察者（启动时注入一次，不支持并发修改）
func (p *PresenceRegistry) SetObserver(observer PresenceObserver) {
	p.observer = observer
}

// Join 将连接登记到其用户名下
// 返回该连接是否是用户的首条连接（0 -> 1 转变）
// 观察者回调在锁外执行，避免回调里再进登记表造成死锁
func (p *PresenceRegistry) Join(c *UserConn) bool {
	p.mu.Lock()
	set, ok := p.conns[c.UserID]
	if !ok {
		set = make(map[string]*UserConn)
		p.conns[c.UserID] = set
	}
	set[c.ID] = c
	first := len(set) == 1
	p.mu.Unlock()

	zap.L().Info("presence join",
		zap.Int64("user_id", c.UserID),
		zap.String("conn_id", c.ID),
		zap.Bool("first", first))

	if first && p.observer != nil {
		p.observer.UserOnline(c.UserID)
	}
	return first
}

// Leave 将连接从其用户名下移除
// 返回该连接是否是用户的最后一条连接（1 -> 0 转变）
// 对未登记的连接重复调用是无害的空操作
func (p *PresenceRegistry) Leave(c *UserConn) bool {
	p.mu.Lock()
	set, ok := p.conns[c.UserID]
	if !ok {
		p.mu.Unlock()
		return false
	}
	if _, exists := set[c.ID]; !exists {
		p.mu.Unlock()
		return false
	}
	delete(set, c.ID)
	last := len(set) == 0
	if last {
		delete(p.conns, c.UserID)
	}
	p.mu.Unlock()

	zap.L().Info("presence leave",
		zap.Int64("user_id", c.UserID),
		zap.String("conn_id", c.ID),
		zap.Bool("last", last))

	if last && p.observer != nil {
		p.observer.UserOffline(c.UserID)
	}
	return last
}

// IsOnline 判断用户当前是否至少持有一条连接
func (p *PresenceRegistry) IsOnline(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns[userID]) > 0
}

// ConnsOf 返回用户当前全部连接的快照
// 返回副本，调用方遍历期间无需持锁
func (p *PresenceRegistry) ConnsOf(userID int64) []*UserConn {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := p.conns[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*UserConn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// OnlineCount 返回当前在线用户数（非连接数）
func (p *PresenceRegistry) OnlineCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}
