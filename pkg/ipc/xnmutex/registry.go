package xnmutex

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

const registryShardCount = 32

// Registry 记录本进程内存活的 Unique 互斥量名称，每个名称至多出现一次。
//
// 操作系统的独占创建只能区分"对象已存在"，无法区分持有者是否为本进程；
// Registry 在调用操作系统之前拦截进程内重复创建，从而给出精确的错误。
// ModeOpenIfExists 创建的互斥量从不登记。
//
// 零值不可用，使用 [NewRegistry] 或 [DefaultRegistry]。并发安全。
type Registry struct {
	shards []registryShard
	mask   uint64
	count  atomic.Int64
}

type registryShard struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewRegistry 创建独立的注册表，通常用于隔离测试或多个工厂。
func NewRegistry() *Registry {
	shards := make([]registryShard, registryShardCount)
	for i := range shards {
		shards[i].names = make(map[string]struct{})
	}
	return &Registry{shards: shards, mask: registryShardCount - 1}
}

var defaultRegistry = sync.OnceValue(NewRegistry)

// DefaultRegistry 返回进程级注册表，默认工厂使用它。
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

func (r *Registry) shard(name string) *registryShard {
	return &r.shards[xxhash.Sum64String(name)&r.mask]
}

// claim 原子地登记 name，已存在时返回 false。
func (r *Registry) claim(name string) bool {
	s := r.shard(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	r.count.Add(1)
	return true
}

// release 移除 name，不存在时返回 false。
func (r *Registry) release(name string) bool {
	s := r.shard(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; !ok {
		return false
	}
	delete(s.names, name)
	r.count.Add(-1)
	return true
}

// Contains 报告本进程是否持有名为 name 的 Unique 互斥量。
func (r *Registry) Contains(name string) bool {
	s := r.shard(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

// Len 返回已登记的名称数量。
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// Names 返回已登记名称的快照，按字典序排列。
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for name := range s.names {
			names = append(names, name)
		}
		s.mu.Unlock()
	}
	slices.Sort(names)
	return names
}
