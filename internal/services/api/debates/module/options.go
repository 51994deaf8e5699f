package module

import (
	"time"

	"uwhatgov/internal/platform/cache"
	"uwhatgov/internal/platform/config"
)

// FromConfig reads CORE_CACHE_ settings for the debate cache
func FromConfig(c config.Conf) cache.Config {
	cc := c.Prefix("CORE_CACHE_")
	return cache.Config{
		Backend:  cc.MayEnum("BACKEND", "memory", "memory", "redis"),
		Capacity: cc.MayInt("CAPACITY", 256),
		TTL:      cc.MayDuration("TTL", 10*time.Minute),
		Prefix:   cc.MayString("PREFIX", "uwhatgov:debate:"),
	}
}
