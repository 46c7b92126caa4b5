package cache

import "fmt"

// GenerateKey builds a namespaced cache key. Cooldown entries use it as
// "cooldown:<rule-id>" so a shared Redis instance never collides with
// other key spaces.
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}
