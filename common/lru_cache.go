// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

// LruCache is a fixed-capacity key/value cache evicting the least recently
// used entry on overflow. It is not safe for concurrent use; the resolution
// caches built on it are owned by a single execution at a time.
type LruCache[K comparable, V any] struct {
	cache    map[K]*entry[K, V]
	capacity int
	head     *entry[K, V]
	tail     *entry[K, V]
}

// NewLruCache returns an empty cache holding at most capacity entries.
func NewLruCache[K comparable, V any](capacity int) *LruCache[K, V] {
	return &LruCache[K, V]{
		cache:    make(map[K]*entry[K, V], capacity),
		capacity: capacity,
	}
}

// Get returns the value stored for the key, if present, and marks it used.
func (c *LruCache[K, V]) Get(key K) (V, bool) {
	var val V
	item, exists := c.cache[key]
	if exists {
		val = item.val
		c.touch(item)
	}
	return val, exists
}

// Set associates the key with the given value and marks it used. If the
// capacity is exceeded, the least recently used entry is evicted.
func (c *LruCache[K, V]) Set(key K, val V) {
	item, exists := c.cache[key]
	if exists {
		item.val = val
		c.touch(item)
		return
	}

	if len(c.cache) >= c.capacity {
		item = c.dropLast() // reuse the evicted entry object
	} else {
		item = new(entry[K, V])
	}
	item.key = key
	item.val = val
	c.cache[key] = item

	// Make the new entry the head of the LRU queue.
	item.prev = nil
	item.next = c.head
	if c.head != nil {
		c.head.prev = item
	}
	c.head = item
	if c.tail == nil {
		c.tail = c.head
	}
}

// Len returns the number of entries currently retained.
func (c *LruCache[K, V]) Len() int {
	return len(c.cache)
}

// Clear removes all entries from the cache.
func (c *LruCache[K, V]) Clear() {
	if len(c.cache) > 0 {
		c.cache = make(map[K]*entry[K, V], c.capacity)
	}
	c.head = nil
	c.tail = nil
}

// touch moves the entry to the head of the LRU queue.
func (c *LruCache[K, V]) touch(item *entry[K, V]) {
	if item == c.head {
		return
	}
	item.prev.next = item.next
	if item.next != nil { // not the tail
		item.next.prev = item.prev
	} else {
		c.tail = item.prev
	}
	item.prev = nil
	item.next = c.head
	c.head.prev = item
	c.head = item
}

// dropLast removes the last entry of the queue and returns it for reuse.
func (c *LruCache[K, V]) dropLast() *entry[K, V] {
	dropped := c.tail
	delete(c.cache, c.tail.key)
	c.tail = c.tail.prev
	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}
	return dropped
}

// entry is a cache item wrapping a key, a value, and the LRU queue links.
type entry[K comparable, V any] struct {
	key  K
	val  V
	prev *entry[K, V]
	next *entry[K, V]
}
