package dedup

// Cache maps canonical on-wire byte sequences to an already-written
// location (an offset, in whatever coordinate space the caller uses: the
// wire builder uses "distance from the current end of buffer" offsets).
//
// A Cache is not safe for concurrent use; the wire builder it backs is
// itself single-threaded and exclusively owned while in use.
type Cache struct {
	buckets map[uint64][]entry
	count   int
}

type entry struct {
	key   []byte
	value uint32
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{buckets: make(map[uint64][]entry)}
}

// Len reports the number of distinct keys cached.
func (c *Cache) Len() int {
	return c.count
}

// Lookup returns the value previously stored for key, if any.
func (c *Cache) Lookup(key []byte) (uint32, bool) {
	h := hashBytes(key)
	for _, e := range c.buckets[h] {
		if string(e.key) == string(key) {
			return e.value, true
		}
	}
	return 0, false
}

// Insert records value for key, overwriting any prior value. The key is
// copied, so the caller's slice may be reused or mutated afterward.
func (c *Cache) Insert(key []byte, value uint32) {
	h := hashBytes(key)
	bucket := c.buckets[h]
	for i, e := range bucket {
		if string(e.key) == string(key) {
			bucket[i].value = value
			return
		}
	}
	owned := make([]byte, len(key))
	copy(owned, key)
	c.buckets[h] = append(bucket, entry{key: owned, value: value})
	c.count++
}

// Clear empties the cache while keeping its backing storage, mirroring the
// wire builder's Clear()/Reset(), which keeps allocated capacity but
// invalidates every cached dedup entry.
func (c *Cache) Clear() {
	for k := range c.buckets {
		delete(c.buckets, k)
	}
	c.count = 0
}
