package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/palemoky/wordle-party/internal/config"
)

const (
	// 连接限制器清理间隔
	limiterCleanupInterval = 5 * time.Minute
	// 超过该时间没有新连接的 IP 记录会被清理
	limiterIdleTTL = 10 * time.Minute
)

// --- 连接速率限制 ---

// ConnLimiter 按 IP 限制新连接速率（令牌桶）
type ConnLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewConnLimiter 创建连接限制器
func NewConnLimiter(cfg config.LimitConfig) *ConnLimiter {
	return &ConnLimiter{
		limit:    rate.Limit(cfg.PerSecond),
		burst:    cfg.Burst,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow 检查该 IP 是否允许建立新连接
func (l *ConnLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup 删除空闲超过 idle 的记录，返回删除数量
func (l *ConnLimiter) Cleanup(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > idle {
			delete(l.visitors, ip)
			n++
		}
	}
	return n
}

// Len 当前记录的 IP 数
func (l *ConnLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Run 定期清理过期记录，直到 ctx 结束
func (l *ConnLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Cleanup(limiterIdleTTL); n > 0 {
				log.Debug().Int("removed", n).Msg("🧹 清理连接限制记录")
			}
		}
	}
}

// newMessageLimiter 单个连接的消息限制器
func newMessageLimiter(cfg config.LimitConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst)
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowed  map[string]bool
	allowAll bool
}

// NewOriginChecker 创建来源验证器，"*" 表示允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowed: make(map[string]bool)}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			oc.allowAll = true
			continue
		}
		oc.allowed[strings.ToLower(strings.TrimSuffix(origin, "/"))] = true
	}
	return oc
}

// Check 检查来源是否允许，没有 Origin 头的请求（本地客户端）直接放行
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return oc.allowed[strings.ToLower(origin)]
}

// --- 辅助函数 ---

// GetClientIP 获取客户端真实 IP，优先使用代理头
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
