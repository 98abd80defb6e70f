package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuqie6/LifeRPG/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSafeMode 数据库处于安全模式时拒绝写入
var ErrSafeMode = errors.New("数据库处于安全模式，拒绝写入")

// SnapshotRepository 状态快照仓储（sqlite）
type SnapshotRepository struct {
	db       *gorm.DB
	readOnly bool
}

// NewSnapshotRepository 创建仓储
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// NewSnapshotRepositoryFor 按数据库状态创建仓储；安全模式下只读
func NewSnapshotRepositoryFor(d *Database) *SnapshotRepository {
	return &SnapshotRepository{db: d.DB, readOnly: d.SafeMode}
}

// Load 读取 payload；不存在返回 (nil, nil)
func (r *SnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	snap, err := r.Get(ctx, key)
	if err != nil || snap == nil {
		return nil, err
	}
	return []byte(snap.Payload), nil
}

// Get 读取完整记录
func (r *SnapshotRepository) Get(ctx context.Context, key string) (*schema.StateSnapshot, error) {
	var snap schema.StateSnapshot
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询快照失败: %w", err)
	}
	return &snap, nil
}

// Save 插入或覆盖，revision 自增
func (r *SnapshotRepository) Save(ctx context.Context, key string, payload []byte) error {
	if r.readOnly {
		return ErrSafeMode
	}
	snap := &schema.StateSnapshot{
		Key:       key,
		Payload:   string(payload),
		Size:      len(payload),
		Revision:  1,
		UpdatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"payload":    snap.Payload,
			"size":       snap.Size,
			"revision":   gorm.Expr("revision + 1"),
			"updated_at": snap.UpdatedAt,
		}),
	}).Create(snap).Error
	if err != nil {
		return fmt.Errorf("保存快照失败: %w", err)
	}
	return nil
}

// Delete 删除快照
func (r *SnapshotRepository) Delete(ctx context.Context, key string) error {
	if r.readOnly {
		return ErrSafeMode
	}
	if err := r.db.WithContext(ctx).Where("`key` = ?", key).Delete(&schema.StateSnapshot{}).Error; err != nil {
		return fmt.Errorf("删除快照失败: %w", err)
	}
	return nil
}

// Keys 列出所有快照 key
func (r *SnapshotRepository) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&schema.StateSnapshot{}).
		Order("`key` ASC").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("查询快照列表失败: %w", err)
	}
	return keys, nil
}
