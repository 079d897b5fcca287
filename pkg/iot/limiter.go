package iot

//go:generate mockgen -source=limiter.go -destination=mocks/limiter_mock.go -package=mocks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

// ParseRatePolicy reads "N/unit" where unit is s, m, h or d.
func ParseRatePolicy(name, value string) (models.RatePolicy, error) {
	count, unit, found := strings.Cut(strings.TrimSpace(value), "/")
	if !found {
		return models.RatePolicy{}, fmt.Errorf("invalid rate %q for %s, use like 60/m", value, name)
	}

	capacity, err := strconv.Atoi(count)
	if err != nil || capacity <= 0 {
		return models.RatePolicy{}, fmt.Errorf("invalid rate %q for %s, count must be a positive int", value, name)
	}

	var window time.Duration
	switch unit {
	case "s":
		window = time.Second
	case "m":
		window = time.Minute
	case "h":
		window = time.Hour
	case "d":
		window = 24 * time.Hour
	default:
		return models.RatePolicy{}, fmt.Errorf("invalid rate %q for %s, unit must be one of s, m, h, d", value, name)
	}

	return models.RatePolicy{Name: name, Capacity: capacity, Window: window}, nil
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, policy models.RatePolicy) (bool, error)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterStore manages per-key token buckets: policy name + key -> rate limiter.
// A bucket refills at Capacity/Window and holds at most Capacity tokens.
type RateLimiterStore struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	now      func() time.Time
}

func NewRateLimiterStore() *RateLimiterStore {
	return &RateLimiterStore{
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

func (s *RateLimiterStore) GetLimiter(key string, policy models.RatePolicy) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := policy.Name + ":" + key
	entry, exists := s.limiters[id]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(policy.Capacity)/policy.Window.Seconds()), policy.Capacity),
		}
		s.limiters[id] = entry
	}
	entry.lastSeen = s.now()
	return entry.limiter
}

func (s *RateLimiterStore) Allow(_ context.Context, key string, policy models.RatePolicy) (bool, error) {
	return s.GetLimiter(key, policy).AllowN(s.now(), 1), nil
}

// Prune drops buckets not touched for idle, returning how many were removed.
func (s *RateLimiterStore) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for id, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, id)
			removed++
		}
	}
	return removed
}

func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// Policies groups the limits applied by the transports and the pipeline.
type Policies struct {
	Login          models.RatePolicy
	Register       models.RatePolicy
	DeviceRegister models.RatePolicy
	Telemetry      models.RatePolicy
	KeyRotation    models.RatePolicy
}

func DefaultPolicies() Policies {
	return Policies{
		Login:          models.RatePolicy{Name: "login", Capacity: 5, Window: time.Minute},
		Register:       models.RatePolicy{Name: "register", Capacity: 3, Window: time.Hour},
		DeviceRegister: models.RatePolicy{Name: "device_register", Capacity: 3, Window: time.Hour},
		Telemetry:      models.RatePolicy{Name: "telemetry", Capacity: 60, Window: time.Minute},
		KeyRotation:    models.RatePolicy{Name: "key_rotation", Capacity: 5, Window: time.Hour},
	}
}

func ParsePolicies(login, register, deviceRegister, telemetry, keyRotation string) (Policies, error) {
	var policies Policies
	var err error
	if policies.Login, err = ParseRatePolicy("login", login); err != nil {
		return policies, err
	}
	if policies.Register, err = ParseRatePolicy("register", register); err != nil {
		return policies, err
	}
	if policies.DeviceRegister, err = ParseRatePolicy("device_register", deviceRegister); err != nil {
		return policies, err
	}
	if policies.Telemetry, err = ParseRatePolicy("telemetry", telemetry); err != nil {
		return policies, err
	}
	if policies.KeyRotation, err = ParseRatePolicy("key_rotation", keyRotation); err != nil {
		return policies, err
	}
	return policies, nil
}
