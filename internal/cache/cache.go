// Package cache 提供进程内的有界 TTL 缓存。
//
// 缓存对象由上层显式构造并注入，不做包级全局状态；容量用 LRU
// 限住，条目带过期时间，同 key 重复写是幂等的 last-write-wins。
package cache

import (
	"container/list"
	"sync"
	"time"
)

type Options struct {
	Capacity int
	TTL      time.Duration
}

const (
	DefaultCapacity = 4096
	DefaultTTL      = 15 * time.Minute
)

type Cache[V any] struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration

	ll    *list.List // front = 最近使用
	items map[string]*list.Element

	now func() time.Time // 测试用
}

type entry[V any] struct {
	key     string
	val     V
	expires time.Time
}

func New[V any](opt Options) *Cache[V] {
	if opt.Capacity <= 0 {
		opt.Capacity = DefaultCapacity
	}
	if opt.TTL <= 0 {
		opt.TTL = DefaultTTL
	}
	return &Cache[V]{
		capacity: opt.Capacity,
		ttl:      opt.TTL,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := el.Value.(*entry[V])
	if c.now().After(ent.expires) {
		c.removeLocked(el)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return ent.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[V])
		ent.val = val
		ent.expires = c.now().Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry[V]{
		key:     key,
		val:     val,
		expires: c.now().Add(c.ttl),
	})
	c.items[key] = el

	for c.ll.Len() > c.capacity {
		c.removeLocked(c.ll.Back())
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ll.Len()
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	ent := el.Value.(*entry[V])
	delete(c.items, ent.key)
	c.ll.Remove(el)
}
