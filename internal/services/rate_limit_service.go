package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AttemptCounter keeps expiring per-key counters
type AttemptCounter interface {
	// Attempts returns the current count for key and the time left in its window
	Attempts(ctx context.Context, key string) (int64, time.Duration, error)
	// Hit increments key, starting a window on the first hit
	Hit(ctx context.Context, key string, window time.Duration) error
	Clear(ctx context.Context, key string) error
}

// RateLimitConfig holds login throttling configuration
type RateLimitConfig struct {
	MaxEmailAttempts int64         // Failed logins allowed per email
	EmailWindow      time.Duration // Window for the email counter
	MaxIPAttempts    int64         // Failed logins allowed per client IP
	IPWindow         time.Duration // Window for the IP counter
}

// DefaultRateLimitConfig returns the default login throttling configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEmailAttempts: 5,                // 5 failures
		EmailWindow:      15 * time.Minute, // per 15 minutes
		MaxIPAttempts:    20,               // 20 failures
		IPWindow:         1 * time.Hour,    // per hour
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// RateLimitService throttles failed logins. A nil counter disables it.
type RateLimitService struct {
	counter AttemptCounter
	config  RateLimitConfig
	logger  *logrus.Logger
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(counter AttemptCounter, config RateLimitConfig, logger *logrus.Logger) *RateLimitService {
	return &RateLimitService{counter: counter, config: config, logger: logger}
}

// Enabled reports whether a counter backs the limiter
func (s *RateLimitService) Enabled() bool {
	return s != nil && s.counter != nil
}

// CheckLogin returns a *RateLimitError when email or ip is over its limit.
// Counter failures let the request through.
func (s *RateLimitService) CheckLogin(ctx context.Context, email, ip string) error {
	if !s.Enabled() {
		return nil
	}

	if email = normalizeEmail(email); email != "" {
		if err := s.check(ctx, emailKey(email), s.config.MaxEmailAttempts, "email"); err != nil {
			return err
		}
	}
	if ip != "" {
		if err := s.check(ctx, ipKey(ip), s.config.MaxIPAttempts, "ip"); err != nil {
			return err
		}
	}
	return nil
}

// RecordFailure counts a failed login against email and ip
func (s *RateLimitService) RecordFailure(ctx context.Context, email, ip string) {
	if !s.Enabled() {
		return
	}
	if email = normalizeEmail(email); email != "" {
		s.hit(ctx, emailKey(email), s.config.EmailWindow)
	}
	if ip != "" {
		s.hit(ctx, ipKey(ip), s.config.IPWindow)
	}
}

// Reset clears the email counter after a successful login
func (s *RateLimitService) Reset(ctx context.Context, email string) {
	if !s.Enabled() {
		return
	}
	if email = normalizeEmail(email); email == "" {
		return
	}
	if err := s.counter.Clear(ctx, emailKey(email)); err != nil {
		s.warn(err, "clear")
	}
}

func (s *RateLimitService) check(ctx context.Context, key string, max int64, kind string) error {
	if max <= 0 {
		return nil
	}
	count, ttl, err := s.counter.Attempts(ctx, key)
	if err != nil {
		s.warn(err, "attempts")
		return nil
	}
	if count < max {
		return nil
	}

	retryAfter := ttl.Round(time.Second)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("Too many failed login attempts. Please try again in %s", retryAfter),
		RetryAfter: retryAfter,
		Type:       kind,
	}
}

func (s *RateLimitService) hit(ctx context.Context, key string, window time.Duration) {
	if err := s.counter.Hit(ctx, key, window); err != nil {
		s.warn(err, "hit")
	}
}

func (s *RateLimitService) warn(err error, op string) {
	if s.logger == nil {
		return
	}
	s.logger.WithError(err).WithField("op", op).Warn("Login rate limiter unavailable, allowing request")
}

func emailKey(email string) string { return "login:email:" + email }

func ipKey(ip string) string { return "login:ip:" + ip }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
