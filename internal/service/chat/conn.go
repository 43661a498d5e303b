// conn.go
// 核心职责：WebSocket 连接生命周期管理
// 1. 建立 WebSocket 连接 (Upgrade)
// 2. 封装 UserConn 对象，管理读写协程 (Read/Write Loop)
// 3. 出站走带超时的非阻塞入队，慢连接丢消息不拖慢其他用户
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"social_connect_server/internal/dto/request"
	"social_connect_server/pkg/constants"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// gorilla/websocket 默认的安全机制会拦截跨域请求，
// 前端与后端不同源时握手会报 403，这里放开 Origin 检查交给上层网关处理
var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var ctx = context.Background()

// UserConn 表示一个 WebSocket 客户端连接
// 一个用户可以同时持有多条 UserConn（多标签页/多设备）
type UserConn struct {
	// ID 连接唯一标识，同一用户的多条连接靠它区分
	ID string
	// UserID 握手时由 JWT 鉴权得到的用户 ID
	UserID int64
	// Conn 底层 WebSocket 连接
	Conn *websocket.Conn

	hub  *Hub
	send chan []byte   // 出站消息缓冲
	quit chan struct{} // 关闭信号，teardown 时 close

	// mu 保护 joined/closed 两个状态位
	// join 事件在 Read 协程处理，而 teardown 可能先由 Write 协程触发，
	// 二者的先后顺序没有保证
	mu     sync.Mutex
	joined bool // 已通过 join 事件绑定在线状态
	closed bool // teardown 已执行，不再接受登记

	closeOnce sync.Once
}

// joinPresence 将连接登记到在线状态表
// 对重复 join 幂等；teardown 之后拒绝登记，否则死连接会永久占据在线状态
func (c *UserConn) joinPresence() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.joined {
		return
	}
	c.joined = true
	c.hub.presence.Join(c)
}

// hasJoined 连接是否已绑定在线状态
func (c *UserConn) hasJoined() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joined
}

// Read 从 WebSocket 读取事件信封并交给 Hub 处理
// 连接断开或读错误时触发 teardown
func (c *UserConn) Read() {
	defer c.teardown()
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			zap.L().Info("ws read loop exit",
				zap.Int64("user_id", c.UserID),
				zap.String("conn_id", c.ID),
				zap.Error(err))
			return
		}
		var envelope request.WsEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			// 畸形帧只回错误事件给当事连接，不影响其他人
			c.hub.sendErrorTo(c, "malformed event payload")
			continue
		}
		c.hub.HandleEvent(c, envelope)
	}
}

// Write 从 send 通道取消息写给 WebSocket
// 写失败或收到关闭信号时退出；teardown 通过 quit 通知，绝不 close(send)
func (c *UserConn) Write() {
	defer c.teardown()
	for {
		select {
		case message := <-c.send:
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				zap.L().Info("ws write loop exit",
					zap.Int64("user_id", c.UserID),
					zap.String("conn_id", c.ID),
					zap.Error(err))
				return
			}
		case <-c.quit:
			return
		}
	}
}

// Enqueue 非阻塞投递出站消息
// send 缓冲满且超过 SEND_TIMEOUT 仍写不进去时丢弃该消息，返回 false
// 并发投递方永远不会因为一条慢连接被阻塞
func (c *UserConn) Enqueue(message []byte) bool {
	timer := time.NewTimer(constants.SEND_TIMEOUT)
	defer timer.Stop()
	select {
	case c.send <- message:
		return true
	case <-c.quit:
		return false
	case <-timer.C:
		zap.L().Warn("slow ws connection, message dropped",
			zap.Int64("user_id", c.UserID),
			zap.String("conn_id", c.ID))
		return false
	}
}

// teardown 关闭连接并从在线登记表摘除，幂等
// closed 置位和 joined 读取在同一临界区内完成：
// 要么 join 先登记、这里负责摘除，要么这里先置 closed、join 拒绝登记，
// 两种交错都不会留下已死但仍在线的连接
func (c *UserConn) teardown() {
	c.closeOnce.Do(func() {
		close(c.quit)
		if c.Conn != nil {
			if err := c.Conn.Close(); err != nil {
				zap.L().Debug("ws close", zap.Error(err))
			}
		}
		c.mu.Lock()
		c.closed = true
		joined := c.joined
		c.mu.Unlock()
		if joined {
			c.hub.presence.Leave(c)
		}
	})
}

// NewClientInit 将已通过 JWT 鉴权的 HTTP 请求升级为 WebSocket 连接
// 升级成功后启动读写协程；连接要等客户端发出 join 事件才会登记在线状态
func (h *Hub) NewClientInit(c *gin.Context, userID int64) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("ws upgrade failed", zap.Error(err))
		return
	}
	client := &UserConn{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
		hub:    h,
		send:   make(chan []byte, constants.CHANNEL_SIZE),
		quit:   make(chan struct{}),
	}
	go client.Read()
	go client.Write()
	zap.L().Info("ws connection established",
		zap.Int64("user_id", userID),
		zap.String("conn_id", client.ID))
}
