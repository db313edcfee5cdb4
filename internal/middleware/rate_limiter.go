package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/model"
)

// ParamKey is the form or query field limited per value.
const ParamKey = "city"

// LimitFunc answers a request that exceeded a limit.
type LimitFunc func(w http.ResponseWriter, r *http.Request, errMsg, message string)

// visitor holds a limiter and the last time it was used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter guards the provider quota with a per-IP limit and a per-IP-and-city limit.
// Rates are configured in requests per minute.
type RateLimiter struct {
	cfg config.RateLimiterConfig

	muGlobal       sync.Mutex
	globalVisitors map[string]*visitor // key: ip

	muParam       sync.Mutex
	paramVisitors map[string]map[string]*visitor // key: ip -> city or route -> visitor

	onLimit LimitFunc
}

func NewRateLimiter(cfg config.RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		cfg:            cfg,
		globalVisitors: make(map[string]*visitor),
		paramVisitors:  make(map[string]map[string]*visitor),
		onLimit:        writeTooManyRequests,
	}
}

// OnLimit replaces the default JSON 429 answer.
func (rl *RateLimiter) OnLimit(fn LimitFunc) {
	if fn != nil {
		rl.onLimit = fn
	}
}

func perSecond(perMinute float64) rate.Limit {
	return rate.Limit(perMinute / 60.0)
}

// getGlobalLimiter returns the limiter for ip, creating one if it does not exist.
func (rl *RateLimiter) getGlobalLimiter(ip string) *rate.Limiter {
	rl.muGlobal.Lock()
	defer rl.muGlobal.Unlock()
	v, exists := rl.globalVisitors[ip]
	if !exists {
		limiter := rate.NewLimiter(perSecond(rl.cfg.GlobalRate), rl.cfg.GlobalBurst)
		rl.globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// getParamLimiter returns the limiter for ip and city, creating one if it does not exist.
// Cities are compared case-insensitively, as the provider does.
func (rl *RateLimiter) getParamLimiter(ip, param string) *rate.Limiter {
	rl.muParam.Lock()
	defer rl.muParam.Unlock()
	param = strings.ToLower(param)
	if _, ok := rl.paramVisitors[ip]; !ok {
		rl.paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := rl.paramVisitors[ip][param]
	if !exists {
		limiter := rate.NewLimiter(perSecond(rl.cfg.ParamRate), rl.cfg.ParamBurst)
		rl.paramVisitors[ip][param] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanup removes visitors not seen since before cutoff.
func (rl *RateLimiter) cleanup(cutoff time.Time) {
	rl.muGlobal.Lock()
	for ip, v := range rl.globalVisitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.globalVisitors, ip)
		}
	}
	rl.muGlobal.Unlock()

	rl.muParam.Lock()
	for ip, paramMap := range rl.paramVisitors {
		for param, v := range paramMap {
			if v.lastSeen.Before(cutoff) {
				delete(paramMap, param)
			}
		}
		if len(paramMap) == 0 {
			delete(rl.paramVisitors, ip)
		}
	}
	rl.muParam.Unlock()
}

// StartCleanup drops visitors idle for longer than the configured cleanup timeout,
// checking once a minute until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.cleanup(now.Add(-rl.cfg.CleanupTimeout))
			}
		}
	}()
}

// Reset clears all visitor state.
func (rl *RateLimiter) Reset() {
	rl.muGlobal.Lock()
	clear(rl.globalVisitors)
	rl.muGlobal.Unlock()
	rl.muParam.Lock()
	clear(rl.paramVisitors)
	rl.muParam.Unlock()
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

// getParam reads the city from the query string or a posted form. Requests without one,
// such as refresh and retry, are bucketed by route.
func getParam(r *http.Request) string {
	param := strings.TrimSpace(r.FormValue(ParamKey))
	if param == "" {
		return "route:" + r.URL.Path
	}
	return param
}

func writeTooManyRequests(w http.ResponseWriter, _ *http.Request, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.Response{
		Error:   &errMsg,
		Message: message,
	})
}

// Middleware enforces the global and per-city limits. When either is exhausted the
// request is answered by the OnLimit function, a JSON 429 by default.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		param := getParam(r)
		if !rl.getGlobalLimiter(ip).Allow() {
			rl.onLimit(w, r,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per user/IP", rl.cfg.GlobalRate),
				"Too Many Requests (global limit)")
			return
		}
		if !rl.getParamLimiter(ip, param).Allow() {
			rl.onLimit(w, r,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute for the same city or action per user/IP", rl.cfg.ParamRate),
				"Too Many Requests (per-city limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}
