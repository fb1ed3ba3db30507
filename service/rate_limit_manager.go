// ABOUTME: Feedly API quota tracking from X-Ratelimit response headers
// ABOUTME: Holds back requests once usage crosses the safety buffer and alerts on thresholds

package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"feedly-sync/utils"
)

// ErrQuotaExhausted is returned while the API quota is held back
var ErrQuotaExhausted = errors.New("feedly API quota exhausted")

// Feedly rate limit headers
const (
	headerRateLimitCount = "X-Ratelimit-Count"
	headerRateLimitLimit = "X-Ratelimit-Limit"
	headerRateLimitReset = "X-Ratelimit-Reset"
)

// defaultBlockDuration applies to a 429 that carries no reset header
const defaultBlockDuration = time.Minute

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	SafetyBufferPercent int   `json:"safety_buffer_percent"`
	AlertThresholds     []int `json:"alert_thresholds"`
}

// RateLimitStatus represents current rate limiting status
type RateLimitStatus struct {
	Usage              int       `json:"usage"`
	Limit              int       `json:"limit"`
	Remaining          int       `json:"remaining"`
	ResetAt            time.Time `json:"reset_at"`
	LastUpdated        time.Time `json:"last_updated"`
	SafetyBufferActive bool      `json:"safety_buffer_active"`
	IsBlocked          bool      `json:"is_blocked"`
	BlockedReason      string    `json:"blocked_reason,omitempty"`
}

// RateLimitAlert represents a rate limit alert
type RateLimitAlert struct {
	AlertType    string    `json:"alert_type"` // "info", "warning", "critical"
	Message      string    `json:"message"`
	Threshold    int       `json:"threshold"`
	CurrentUsage int       `json:"current_usage"`
	Limit        int       `json:"limit"`
	Timestamp    time.Time `json:"timestamp"`
}

// RateLimitManager tracks the Feedly quota as the API reports it
type RateLimitManager struct {
	config         RateLimitConfig
	logger         *slog.Logger
	now            func() time.Time
	status         RateLimitStatus
	alerted        map[int]bool
	alertCallbacks []func(*RateLimitAlert)
	mu             sync.RWMutex
}

func NewRateLimitManager(logger *slog.Logger) *RateLimitManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimitManager{
		config: RateLimitConfig{
			SafetyBufferPercent: 10,
			AlertThresholds:     []int{50, 75, 90},
		},
		logger:  logger,
		now:     time.Now,
		alerted: make(map[int]bool),
	}
}

// ObserveResponse updates the status from one API response. Responses
// without quota headers are ignored, except 429 which blocks until reset.
func (r *RateLimitManager) ObserveResponse(statusCode int, headers http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	count, hasCount := headerInt(headers, headerRateLimitCount)
	limit, hasLimit := headerInt(headers, headerRateLimitLimit)
	if reset, ok := headerInt(headers, headerRateLimitReset); ok {
		r.status.ResetAt = now.Add(time.Duration(reset) * time.Second)
	}

	if hasLimit {
		if r.status.Limit != limit || (hasCount && count < r.status.Usage) {
			// new window
			r.alerted = make(map[int]bool)
		}
		r.status.Limit = limit
	}
	if hasCount {
		r.status.Usage = count
	}
	if !hasCount && !hasLimit && statusCode != http.StatusTooManyRequests {
		return
	}

	r.status.Remaining = max(r.status.Limit-r.status.Usage, 0)
	r.status.LastUpdated = now
	r.updateBlockedStatus(statusCode, now)
	r.checkAndTriggerAlerts()

	utils.FeedlyQuotaRemaining.Set(float64(r.status.Remaining))

	r.logger.Debug("Rate limit status updated from headers",
		"usage", r.status.Usage,
		"limit", r.status.Limit,
		"reset_at", r.status.ResetAt)
}

// CheckAllowed returns ErrQuotaExhausted while requests are held back
func (r *RateLimitManager) CheckAllowed() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.status.IsBlocked {
		return nil
	}
	// without a known reset time the next response decides
	if r.status.ResetAt.IsZero() || !r.now().Before(r.status.ResetAt) {
		return nil
	}
	return fmt.Errorf("%w: %s (resets at %s)", ErrQuotaExhausted, r.status.BlockedReason, r.status.ResetAt.Format(time.RFC3339))
}

// GetStatus returns a snapshot of the current status
func (r *RateLimitManager) GetStatus() RateLimitStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// GetUsagePercentage returns the used share of the quota
func (r *RateLimitManager) GetUsagePercentage() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.usagePercentage()
}

func (r *RateLimitManager) usagePercentage() float64 {
	if r.status.Limit == 0 {
		return 0
	}
	return float64(r.status.Usage) / float64(r.status.Limit) * 100
}

// AddAlertCallback adds a callback function for rate limit alerts
func (r *RateLimitManager) AddAlertCallback(callback func(*RateLimitAlert)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alertCallbacks = append(r.alertCallbacks, callback)
}

func (r *RateLimitManager) updateBlockedStatus(statusCode int, now time.Time) {
	if statusCode == http.StatusTooManyRequests {
		if !r.status.ResetAt.After(now) {
			r.status.ResetAt = now.Add(defaultBlockDuration)
		}
		r.status.IsBlocked = true
		r.status.SafetyBufferActive = false
		r.status.BlockedReason = "Feedly answered 429"
		return
	}

	percentage := r.usagePercentage()
	safetyThreshold := float64(100 - r.config.SafetyBufferPercent)
	if r.status.Limit > 0 && percentage >= safetyThreshold {
		r.status.IsBlocked = true
		r.status.SafetyBufferActive = true
		r.status.BlockedReason = fmt.Sprintf("usage exceeded safety threshold: %.1f%%", percentage)
		return
	}

	r.status.IsBlocked = false
	r.status.SafetyBufferActive = false
	r.status.BlockedReason = ""
}

// checkAndTriggerAlerts fires each threshold at most once per quota window
func (r *RateLimitManager) checkAndTriggerAlerts() {
	percentage := r.usagePercentage()
	for _, threshold := range r.config.AlertThresholds {
		if percentage < float64(threshold) || r.alerted[threshold] {
			continue
		}
		r.alerted[threshold] = true
		r.triggerAlert(&RateLimitAlert{
			AlertType:    alertType(threshold),
			Message:      fmt.Sprintf("Feedly API usage reached %d%% threshold", threshold),
			Threshold:    threshold,
			CurrentUsage: r.status.Usage,
			Limit:        r.status.Limit,
			Timestamp:    r.now(),
		})
	}
}

func (r *RateLimitManager) triggerAlert(alert *RateLimitAlert) {
	r.logger.Warn("Rate limit alert triggered",
		"alert_type", alert.AlertType,
		"message", alert.Message,
		"threshold", alert.Threshold)

	for _, callback := range r.alertCallbacks {
		go callback(alert)
	}
}

func alertType(threshold int) string {
	switch {
	case threshold >= 90:
		return "critical"
	case threshold >= 75:
		return "warning"
	default:
		return "info"
	}
}

func headerInt(headers http.Header, key string) (int, bool) {
	value := headers.Get(key)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, false
	}
	return parsed, true
}
