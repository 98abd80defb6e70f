// Package instlock 在数据目录上加跨进程排他锁，防止两个进程交错地读改写同一份状态。
package instlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrLocked 锁已被其他进程持有（TryLock）
var ErrLocked = errors.New("数据锁被其他进程持有")

// Lock 基于锁文件的进程间互斥；同一进程内不可重入
type Lock struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// New 创建锁，path 为锁文件路径（不存在时创建）
func New(path string) *Lock {
	return &Lock{path: path}
}

// Path 锁文件路径
func (l *Lock) Path() string {
	return l.path
}

// Lock 阻塞直到获得锁
func (l *Lock) Lock() error {
	return l.acquire(true)
}

// TryLock 非阻塞获取，失败返回 ErrLocked
func (l *Lock) TryLock() error {
	return l.acquire(false)
}

func (l *Lock) acquire(block bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f != nil {
		return fmt.Errorf("锁已持有: %s", l.path)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("创建锁目录失败: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("打开锁文件失败: %w", err)
	}
	if err := lockFile(f, block); err != nil {
		f.Close()
		return err
	}
	l.f = f
	return nil
}

// Unlock 释放锁；未持有时为空操作
func (l *Lock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	if err != nil {
		return fmt.Errorf("释放锁失败: %w", err)
	}
	return nil
}
