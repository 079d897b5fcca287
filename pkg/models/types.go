package models

import (
	"fmt"
	"time"
)

// RatePolicy allows Capacity requests per Window for one key.
type RatePolicy struct {
	Name     string
	Capacity int
	Window   time.Duration
}

func (p RatePolicy) String() string {
	return fmt.Sprintf("%s %d/%s", p.Name, p.Capacity, p.Window)
}

type IngestRequest struct {
	// Header is the raw Authorization header value.
	Header string
	Body   []byte
	// RateKey identifies the caller for the telemetry limit, usually the
	// device key supplied out of band. RemoteAddr is used when it is empty.
	RateKey    string
	RemoteAddr string
}

type IngestResult struct {
	ID       uint      `json:"id"`
	ServerTS time.Time `json:"server_ts"`
}

type QueryFilter struct {
	DeviceSerial string
	Start        *time.Time
	End          *time.Time
	Range        string
	Latest       bool
	Limit        int
}

// DeleteFilter selects samples by server time, From inclusive and To exclusive.
type DeleteFilter struct {
	DeviceSerial string
	From         *time.Time
	To           *time.Time
	All          bool
}

type CredentialInfo struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"is_active"`
}

type AlertConfigInput struct {
	Enabled         *bool
	HighEnabled     *bool
	HighThresholdC  *float64
	LowEnabled      *bool
	LowThresholdC   *float64
	CooldownMinutes *int
	RecipientEmail  *string
}

type StorageSummary struct {
	Plan             StoragePlan `json:"plan"`
	UsageBytes       int64       `json:"usage_bytes"`
	LimitBytes       int64       `json:"limit_bytes"`
	RemainingBytes   int64       `json:"remaining_bytes"`
	UsagePercentage  float64     `json:"usage_percentage"`
	UsageDisplay     string      `json:"usage_display"`
	LimitDisplay     string      `json:"limit_display"`
	RemainingDisplay string      `json:"remaining_display"`
	IsFull           bool        `json:"is_full"`
	LastCalculatedAt *time.Time  `json:"last_calculated_at"`
	DeviceCount      int64       `json:"device_count"`
	SampleCount      int64       `json:"sample_count"`
}
