package schema

import "time"

// StateSnapshot 状态聚合的持久化行：key -> JSON blob
type StateSnapshot struct {
	Key       string    `gorm:"primaryKey;size:128"`
	Payload   string    `gorm:"type:text;not null"`
	Size      int       `gorm:"not null;default:0"`
	Revision  int64     `gorm:"not null;default:0"` // 每次保存递增
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (StateSnapshot) TableName() string {
	return "state_snapshots"
}
