package models

import (
	"time"

	"gorm.io/datatypes"
)

type Mode string

const (
	ModeOff  Mode = "OFF"
	ModeHeat Mode = "HEAT"
	ModeCool Mode = "COOL"
	ModeAuto Mode = "AUTO"
)

var Modes = []Mode{ModeOff, ModeHeat, ModeCool, ModeAuto}

type StoragePlan string

const (
	StoragePlanFree     StoragePlan = "free"
	StoragePlanStandard StoragePlan = "standard"
	StoragePlanPremium  StoragePlan = "premium"
)

type AlertDirection string

const (
	AlertDirectionHigh AlertDirection = "high"
	AlertDirectionLow  AlertDirection = "low"
)

type Account struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	Email        string `gorm:"size:254"`
	PasswordHash string `json:"-"`
	CreatedAt    time.Time

	Devices        []Device        `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	StorageProfile *StorageProfile `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

type Device struct {
	ID          uint   `gorm:"primaryKey"`
	OwnerID     uint   `gorm:"index;not null"`
	Serial      string `gorm:"size:64;uniqueIndex;not null"`
	Name        string `gorm:"size:100"`
	CreatedAt   time.Time
	LastSeen    *time.Time
	LastAddress *string `gorm:"size:45"`

	Owner       *Account        `gorm:"foreignKey:OwnerID"`
	Credentials []ApiCredential `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE"`
	AlertConfig *AlertConfig    `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE"`
}

// ApiCredential never holds the raw secret, only its keyed digest.
type ApiCredential struct {
	ID        uint      `gorm:"primaryKey"`
	DeviceID  uint      `gorm:"index:idx_credential_lookup,priority:1;not null"`
	KeyHash   string    `gorm:"size:64;index;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index:idx_credential_lookup,priority:3;not null"`
	Active    bool      `gorm:"index:idx_credential_lookup,priority:2;not null"`

	Device *Device `gorm:"foreignKey:DeviceID" json:"-"`
}

// IsValidAt reports active and unexpired at now.
func (c *ApiCredential) IsValidAt(now time.Time) bool {
	return c.Active && now.Before(c.ExpiresAt)
}

// TelemetrySample references its device by serial only. Samples may outlive
// the device row until they are purged.
type TelemetrySample struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	DeviceSerial    string     `gorm:"size:64;not null;index:idx_sample_device_ts,priority:1" json:"device_id"`
	Mode            Mode       `gorm:"size:8;not null" json:"mode"`
	SetpointC       float64    `gorm:"not null" json:"setpoint_c"`
	TempInsideC     float64    `gorm:"not null" json:"temp_inside_c"`
	TempOutsideC    *float64   `json:"temp_outside_c"`
	HysteresisC     *float64   `json:"hysteresis_c"`
	Output          *string    `gorm:"size:32" json:"output"`
	HumidityPercent *float64   `json:"humidity_percent"`
	DeviceTS        *time.Time `json:"device_ts"`
	ServerTS        time.Time  `gorm:"not null;index:idx_sample_device_ts,priority:2" json:"server_ts"`

	RawPayload datatypes.JSON `json:"raw_payload"`
}

type StorageProfile struct {
	ID               uint        `gorm:"primaryKey"`
	AccountID        uint        `gorm:"uniqueIndex;not null"`
	Plan             StoragePlan `gorm:"size:20;not null;default:free"`
	CachedUsageBytes int64       `gorm:"not null;default:0"`
	LastCalculatedAt *time.Time
}

type AlertConfig struct {
	ID             uint          `gorm:"primaryKey"`
	DeviceID       uint          `gorm:"uniqueIndex;not null"`
	Enabled        bool          `gorm:"not null"`
	HighEnabled    bool          `gorm:"not null"`
	HighThresholdC float64       `gorm:"not null"`
	LowEnabled     bool          `gorm:"not null"`
	LowThresholdC  float64       `gorm:"not null"`
	Cooldown       time.Duration `gorm:"not null"`
	LastHighSentAt *time.Time
	LastLowSentAt  *time.Time
	RecipientEmail *string `gorm:"size:254"`
}

func DefaultAlertConfig(deviceID uint) AlertConfig {
	return AlertConfig{
		DeviceID:       deviceID,
		Enabled:        false,
		HighEnabled:    true,
		HighThresholdC: 30.0,
		LowEnabled:     true,
		LowThresholdC:  10.0,
		Cooldown:       30 * time.Minute,
	}
}

// LastSent returns the last dispatch time for one direction.
func (c *AlertConfig) LastSent(direction AlertDirection) *time.Time {
	if direction == AlertDirectionHigh {
		return c.LastHighSentAt
	}
	return c.LastLowSentAt
}

type AlertEvent struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	DeviceSerial string         `gorm:"size:64;index;not null" json:"device_id"`
	Direction    AlertDirection `gorm:"type:varchar(8);check:direction IN ('high','low')" json:"direction"`
	MeasuredC    float64        `json:"measured_c"`
	ThresholdC   float64        `json:"threshold_c"`
	Recipient    string         `gorm:"size:254" json:"recipient"`
	SentAt       time.Time      `gorm:"index" json:"sent_at"`
}
