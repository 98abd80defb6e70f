package repository

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuqie6/LifeRPG/internal/service"
)

// 存储引擎
const (
	EngineSQLite = "sqlite"
	EngineJSON   = "json"
)

// StoreOptions 存储选项
type StoreOptions struct {
	Engine   string
	DBPath   string
	JSONPath string // json 引擎的数据目录
}

// OpenSnapshotStore 按引擎打开快照存储，返回的 Closer 负责释放底层资源
func OpenSnapshotStore(opts StoreOptions) (service.SnapshotStore, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case "", EngineSQLite:
		db, err := NewDatabase(opts.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return NewSnapshotRepositoryFor(db), db, nil
	case EngineJSON:
		fs, err := NewFileSnapshotStore(opts.JSONPath)
		if err != nil {
			return nil, nil, err
		}
		return fs, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("未知存储引擎: %s", opts.Engine)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
