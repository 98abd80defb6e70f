package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// 进度事件类型
const (
	TypeEntryLogged      = "entry_logged"
	TypeEntryDeleted     = "entry_deleted"
	TypeLevelUp          = "level_up"
	TypeRankChanged      = "rank_changed"
	TypeDecayApplied     = "decay_applied"
	TypeQuestsGenerated  = "quests_generated"
	TypeQuestCompleted   = "quest_completed"
	TypeCampaignArchived = "campaign_archived"
)

type Event struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}

	published atomic.Int64
	dropped   atomic.Int64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.published.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			// 慢消费者直接丢弃，不阻塞状态写入
			h.dropped.Add(1)
		}
	}
}

// Subscribe 订阅直到 ctx 结束，结束后关闭通道
func (h *Hub) Subscribe(ctx context.Context, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Subscribers 当前订阅数
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Stats 已发布事件数与因慢消费者丢弃的投递数
func (h *Hub) Stats() (published, dropped int64) {
	return h.published.Load(), h.dropped.Load()
}
