package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileSnapshotStore 每个 key 一个 JSON 文件
type FileSnapshotStore struct {
	dir string
}

// NewFileSnapshotStore 创建文件存储，目录不存在时创建
func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir 不能为空")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

// Path key 对应的文件路径
func (s *FileSnapshotStore) Path(key string) string {
	name := unsafeKeyChars.ReplaceAllString(key, "_")
	if name == "" {
		name = "_"
	}
	return filepath.Join(s.dir, name+".json")
}

// Load 读取 payload；文件不存在返回 (nil, nil)
func (s *FileSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取快照文件失败: %w", err)
	}
	return b, nil
}

// Save 先写临时文件再 rename，保证读者看不到半写状态
func (s *FileSnapshotStore) Save(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // rename 成功后为空操作

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("写入快照文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("同步快照文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭快照文件失败: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("替换快照文件失败: %w", err)
	}
	return nil
}
