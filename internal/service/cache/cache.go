package cache

import "time"

// BytesCache stores serialized API responses with a TTL. The acquisition
// clients and the recent-alerts endpoint cache through it so a burst of
// requests never re-hits an upstream source or ClickHouse.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
