package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vocalshare/backend/pkg/response"
)

// RateLimit returns a per-client-IP token bucket limiter. perMinute <= 0
// disables limiting. Idle client entries are dropped after an hour.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = perMinute
	}

	type entry struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		mu      sync.Mutex
		clients = make(map[string]*entry)
	)
	limit := rate.Every(time.Minute / time.Duration(perMinute))

	cleanup := func(now time.Time) {
		for ip, e := range clients {
			if now.Sub(e.lastSeen) > time.Hour {
				delete(clients, ip)
			}
		}
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		e, ok := clients[ip]
		if !ok {
			e = &entry{limiter: rate.NewLimiter(limit, burst)}
			clients[ip] = e
			if len(clients)%256 == 0 {
				cleanup(now)
			}
		}
		e.lastSeen = now
		allowed := e.limiter.Allow()
		mu.Unlock()

		if !allowed {
			response.TooManyRequests(c, "Too many requests from this IP, please try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
