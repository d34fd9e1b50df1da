// Package cache provides a generic, thread-safe LRU cache.
//
// The kerf service memoizes adjusted drawings in it, keyed by the content
// hash of the uploaded drawing and the requested offset:
//
//	c := cache.New[string, []byte](64)
//	c.Set(key, out)
//	out, ok := c.Get(key)
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after creation
// (it contains a mutex).
package cache
