// Package events 把曲库变化通知推送给 websocket 客户端
package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/yleoer/keepsake/pkg/logger"
)

// TypeCatalogChanged 在音频目录变化且播放列表重建后发送
const TypeCatalogChanged = "catalog-changed"

const (
	subscriberBuffer = 8
	writeTimeout     = 5 * time.Second
)

// Event 是发送给订阅者的 JSON 消息
type Event struct {
	Type       string    `json:"type"`
	TrackCount int       `json:"trackCount"`
	At         time.Time `json:"at"`
}

// Hub 维护已连接的订阅者
type Hub struct {
	logger *logger.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{logger: log, subs: make(map[chan Event]struct{})}
}

// Subscribe 注册订阅者，返回的函数用于注销并关闭通道
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish 把事件发给所有订阅者，缓冲区已满的订阅者会丢掉这次事件
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Warn(context.Background(), "Dropping event for slow subscriber", zap.String("type", ev.Type))
		}
	}
}

// Count 返回已连接的订阅者数量
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP 把请求升级为 websocket，并持续推送事件直到客户端断开
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLoggerFromCtx(r.Context())
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn(r.Context(), "Websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// 不读取客户端消息，控制帧由 CloseRead 处理
	ctx := conn.CloseRead(r.Context())
	events, unsubscribe := h.Subscribe()
	defer unsubscribe()
	log.Debug(ctx, "Event subscriber connected", zap.Int("subscribers", h.Count()))

	for {
		select {
		case <-ctx.Done():
			log.Debug(r.Context(), "Event subscriber gone")
			return
		case ev := <-events:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				log.Debug(r.Context(), "Failed to write event", zap.Error(err))
				return
			}
		}
	}
}
