// Package cache holds small in-process caches used by the presentation layer.
package cache

// Cache is a keyed store with bounded size.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Len() int
}
