package service

import (
	"context"

	"github.com/yuqie6/LifeRPG/internal/eventbus"
)

// 仓储/外部依赖的最小接口集合（ISP）

// SnapshotStore 以 key 读写整份状态 blob；不存在时返回 (nil, nil)
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// Publisher 进度事件发布者
type Publisher interface {
	Publish(evt eventbus.Event)
}

// Locker 跨进程互斥，保证读-改-写不与其他进程交错
type Locker interface {
	Lock() error
	Unlock() error
}
