package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"taskAPI/internal/logger"
	"time"

	"go.uber.org/zap"
)

// LimitResult - состояние окна после учёта запроса
type LimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (LimitResult, error)
	Name() string
}

type clientInfo struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter - фиксированное окно в памяти процесса
type MemoryLimiter struct {
	rpm     int
	window  time.Duration
	clients map[string]*clientInfo
	mtx     sync.Mutex
	now     func() time.Time
}

func NewMemoryLimiter(rpm int) *MemoryLimiter {
	return &MemoryLimiter{
		rpm:     rpm,
		window:  time.Minute,
		clients: make(map[string]*clientInfo),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Name() string {
	return "memory"
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (LimitResult, error) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	info, exists := l.clients[key]
	if !exists || now.After(info.resetAt) {
		info = &clientInfo{count: 0, resetAt: now.Add(l.window)}
		l.clients[key] = info
	}

	if info.count >= l.rpm {
		return LimitResult{Allowed: false, Limit: l.rpm, Remaining: 0, ResetAt: info.resetAt}, nil
	}

	info.count++
	return LimitResult{
		Allowed:   true,
		Limit:     l.rpm,
		Remaining: l.rpm - info.count,
		ResetAt:   info.resetAt,
	}, nil
}

// Cleanup удаляет истёкшие окна
func (l *MemoryLimiter) Cleanup() int {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	removed := 0
	for key, info := range l.clients {
		if now.After(info.resetAt) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// RateLimit при ошибке лимитера пропускает запрос
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), getIp(r))
			if err != nil {
				logger.Warn("HTTP: Ошибка лимитера, запрос пропущен",
					zap.String("backend", limiter.Name()),
					zap.Error(err))
				w.Header().Set("X-RateLimit-Error", limiter.Name()+"-error")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				RLBlocked.WithLabelValues(limiter.Name()).Inc()
				retryAfter := int(time.Until(res.ResetAt).Seconds()) + 1

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "RATE_LIMIT_EXCEEDED",
					"message":     "Muitas requisições. Tente novamente mais tarde.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
