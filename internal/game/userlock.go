package game

import (
	"sync"
)

// UserLocker 按用户串行化的锁注册表
// 每个用户一个容量为1的信号量，等待者按到达顺序获得锁；
// 最后一个持有者释放后条目被回收，注册表不会无限增长。
type UserLocker struct {
	mu      sync.Mutex
	entries map[uint]*lockEntry
}

type lockEntry struct {
	sem     chan struct{}
	holders int // 持有者+等待者总数
}

// NewUserLocker 创建用户锁注册表
func NewUserLocker() *UserLocker {
	return &UserLocker{
		entries: make(map[uint]*lockEntry),
	}
}

// Lock 获取指定用户的锁，已被占用时阻塞等待
func (l *UserLocker) Lock(userID uint) {
	l.mu.Lock()
	entry, ok := l.entries[userID]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[userID] = entry
	}
	entry.holders++
	l.mu.Unlock()

	entry.sem <- struct{}{}
}

// Unlock 释放指定用户的锁
// 必须与Lock配对调用，调用方通过defer保证异常路径也会释放。
func (l *UserLocker) Unlock(userID uint) {
	l.mu.Lock()
	entry, ok := l.entries[userID]
	if !ok {
		l.mu.Unlock()
		return
	}
	entry.holders--
	if entry.holders == 0 {
		delete(l.entries, userID)
	}
	l.mu.Unlock()

	<-entry.sem
}

// ActiveLocks 当前注册表中的条目数（测试用）
func (l *UserLocker) ActiveLocks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
