package cache

// Store is an in-process key/value store without eviction or expiry.
type Store interface {
	Put(key string, value []byte)
	// Get returns the value for key, or fallback when the key is absent.
	Get(key string, fallback []byte) []byte
	KeyExists(key string) bool
	RemoveKey(key string)
	Clear()
	Keys() []string
}
