package handler

import (
	"expvar"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/csrf"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

var (
	totalRequestsReceived           = expvar.NewInt("total_requests_received")
	totalResponsesSent              = expvar.NewInt("total_responses_sent")
	totalProcessingTimeMicroseconds = expvar.NewInt("total_processing_time_μs")
	totalResponsesSentByStatus      = expvar.NewMap("total_responses_sent_by_status")
)

// recoverPanic middleware recovers from panics and will always be run in the event of a panic.
func (h *Handler) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				h.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// logRequest middleware writes one debug entry per request.
func (h *Handler) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.PrintDebug("request", map[string]string{
			"remote_addr":    r.RemoteAddr,
			"request_method": r.Method,
			"request_url":    r.URL.String(),
		})
		next.ServeHTTP(w, r)
	})
}

// metrics middleware records request counts and processing time in expvar.
func (h *Handler) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		totalRequestsReceived.Add(1)
		m := httpsnoop.CaptureMetrics(next, w, r)
		totalResponsesSent.Add(1)
		totalProcessingTimeMicroseconds.Add(m.Duration.Microseconds())
		totalResponsesSentByStatus.Add(strconv.Itoa(m.Code), 1)
	})
}

// enableCORS middleware relaxes the same-origin policy.
func (h *Handler) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")
		origin := r.Header.Get("Origin")
		if origin != "" {
			for i := range h.config.Cors.TrustedOrigins {
				if origin == h.config.Cors.TrustedOrigins[i] {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
						w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET, POST")
						w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
						w.WriteHeader(http.StatusOK)
						return
					}
					break
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit middleware implements IP-based rate limiting. Limiters live in a
// TTL cache and expire once their client stops sending requests.
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.config.Limiter.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			h.serverErrorResponse(w, r, err)
			return
		}
		mu.Lock()
		var limiter *rate.Limiter
		// Get extends the item's TTL, so active clients keep their limiter.
		if item := h.limiters.Get(ip); item != nil {
			limiter = item.Value()
		} else {
			limiter = rate.NewLimiter(rate.Limit(h.config.Limiter.RPS), h.config.Limiter.Burst)
			h.limiters.Set(ip, limiter, ttlcache.DefaultTTL)
		}
		allowed := limiter.Allow()
		mu.Unlock()
		if !allowed {
			h.rateLimitExceededResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfProtect middleware guards state-changing forms with a token cookie.
// It is a no-op when no key is configured.
func (h *Handler) csrfProtect(next http.Handler) http.Handler {
	if h.config.CSRF.Key == "" {
		return next
	}
	protect := csrf.Protect(
		[]byte(h.config.CSRF.Key),
		csrf.Secure(h.config.CSRF.Secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.MaxAge(int((12 * time.Hour).Seconds())),
		csrf.ErrorHandler(http.HandlerFunc(h.invalidCSRFTokenResponse)),
	)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.config.CSRF.Secure {
			r = csrf.PlaintextHTTPRequest(r)
		}
		protect.ServeHTTP(w, r)
	})
}
