package iot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const (
	DefaultQueryLimit   = 100
	MaxQueryLimit       = 1000
	MaxExplicitRangeCap = 10000
	RecentLimit         = 20
)

var requiredSampleFields = []string{"mode", "setpoint_c", "temp_inside_c"}

var modeValidator = z.String().OneOf(common.Mapper(models.Modes, func(m models.Mode) string { return string(m) }))

// ParseQueryTime accepts RFC 3339 and the shorter forms produced by browser
// date pickers. Values without a zone are taken as UTC.
func ParseQueryTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", value)
}

// parseRange reads "24h" or "7d" style windows.
func parseRange(value string) (time.Duration, error) {
	invalid := NewMalformedRequestError("Invalid 'range' format, use like '24h' or '7d'", "range")
	if len(value) < 2 {
		return 0, invalid
	}

	n, err := strconv.ParseFloat(value[:len(value)-1], 64)
	if err != nil || n < 0 {
		return 0, invalid
	}

	switch value[len(value)-1] {
	case 'h':
		return time.Duration(n * float64(time.Hour)), nil
	case 'd':
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	return 0, invalid
}

func numberField(payload map[string]any, field string) (*float64, bool) {
	value, present := payload[field]
	if !present || value == nil {
		return nil, true
	}

	var f float64
	var err error
	switch v := value.(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return nil, false
	}
	// NaN and the infinities cannot be stored or rendered back as JSON
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &f, true
}

func decodePayload(body []byte) (map[string]any, error) {
	payload := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 {
		return payload, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, NewMalformedRequestError(fmt.Sprintf("Invalid JSON: %v", err))
	}
	return payload, nil
}

// validateSample reports every missing or ill-typed field at once.
func validateSample(payload map[string]any) (*models.TelemetrySample, error) {
	var missing []string
	for _, field := range requiredSampleFields {
		if _, present := payload[field]; !present {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, NewMalformedRequestError(
			fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")),
			missing...,
		)
	}

	var invalid []string

	mode, _ := payload["mode"].(string)
	mode = strings.ToUpper(strings.TrimSpace(mode))
	if issues := modeValidator.Validate(&mode); len(issues) > 0 || mode == "" {
		invalid = append(invalid, "mode")
	}

	numbers := map[string]*float64{}
	for _, field := range []string{"setpoint_c", "temp_inside_c", "temp_outside_c", "hysteresis_c", "humidity_percent"} {
		value, ok := numberField(payload, field)
		if !ok {
			invalid = append(invalid, field)
			continue
		}
		numbers[field] = value
	}
	for _, field := range []string{"setpoint_c", "temp_inside_c"} {
		if _, ok := numbers[field]; ok && numbers[field] == nil {
			invalid = append(invalid, field)
		}
	}

	var output *string
	switch v := payload["output"].(type) {
	case nil:
	case string:
		output = &v
	case bool:
		s := "OFF"
		if v {
			s = "ON"
		}
		output = &s
	default:
		invalid = append(invalid, "output")
	}

	if len(invalid) > 0 {
		return nil, NewMalformedRequestError(
			fmt.Sprintf("Invalid fields: %s", strings.Join(invalid, ", ")),
			invalid...,
		)
	}

	// the device clock is untrusted, unparseable values are dropped
	var deviceTS *time.Time
	if raw, ok := payload["timestamp"].(string); ok && raw != "" {
		if t, err := ParseQueryTime(raw); err == nil {
			deviceTS = &t
		}
	}

	return &models.TelemetrySample{
		Mode:            models.Mode(mode),
		SetpointC:       *numbers["setpoint_c"],
		TempInsideC:     *numbers["temp_inside_c"],
		TempOutsideC:    numbers["temp_outside_c"],
		HysteresisC:     numbers["hysteresis_c"],
		Output:          output,
		HumidityPercent: numbers["humidity_percent"],
		DeviceTS:        deviceTS,
	}, nil
}

func (i *IOT) ingest(ctx context.Context, req models.IngestRequest) (*models.IngestResult, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTIngest),
	)

	if i.Limiter != nil {
		key := req.RateKey
		if key == "" {
			key = req.RemoteAddr
		}
		allowed, err := i.Limiter.Allow(ctx, key, i.Options.Policies.Telemetry)
		if err != nil {
			// the limiter backend being down must not take ingestion with it
			logger.Warn("Rate limiter unavailable, allowing request", zap.Error(err))
		} else if !allowed {
			return nil, errRateLimited
		}
	}

	device, err := i.Auth.Authenticate(req.Header)
	if err != nil {
		return nil, err
	}
	if len(req.Body) > i.Options.MaxBodyBytes {
		return nil, errPayloadTooLarge
	}

	payload, decodeErr := decodePayload(req.Body)

	profile, err := i.Storage.GetProfile(device.OwnerID)
	if err != nil {
		return nil, err
	}
	estimate := i.Options.EstimateSampleSize(payload)
	if !i.Storage.HasRoomFor(profile, estimate) {
		logger.Warn("Storage limit reached, sample rejected",
			zap.String("serial", device.Serial),
			zap.Int64("usage", profile.CachedUsageBytes),
			zap.Int64("estimate", estimate),
		)
		return nil, NewStorageLimitError(common.FormatLimit(i.Storage.Limit(profile.Plan)))
	}

	if decodeErr != nil {
		return nil, decodeErr
	}
	sample, err := validateSample(payload)
	if err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(req.Body)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	now := i.now()
	sample.DeviceSerial = device.Serial
	sample.ServerTS = now
	sample.RawPayload = datatypes.JSON(raw)

	if err := i.Db.Conn.Create(sample).Error; err != nil {
		return nil, err
	}

	seen := map[string]any{"last_seen": now}
	if req.RemoteAddr != "" {
		seen["last_address"] = req.RemoteAddr
	}
	if err := i.Db.Conn.Model(&models.Device{}).Where("id = ?", device.ID).Updates(seen).Error; err != nil {
		logger.Error("Failed to update device last seen", zap.String("serial", device.Serial), zap.Error(err))
	}

	if err := i.Storage.RecordIngestedBytes(profile, estimate); err != nil {
		logger.Error("Failed to record ingested bytes", zap.Uint("account_id", device.OwnerID), zap.Error(err))
	}

	logger.Info("Ingested telemetry from device",
		zap.String("serial", device.Serial),
		zap.Uint("sample_id", sample.ID),
	)

	i.dispatchAlerts(ctx, device, sample.TempInsideC, now)

	return &models.IngestResult{ID: sample.ID, ServerTS: sample.ServerTS}, nil
}

func (i *IOT) ownedSerials(ownerID uint) *gorm.DB {
	return i.Db.Conn.Model(&models.Device{}).Select("serial").Where("owner_id = ?", ownerID)
}

func (i *IOT) querySamples(ownerID uint, filter models.QueryFilter) ([]models.TelemetrySample, error) {
	tx := i.Db.Conn.Model(&models.TelemetrySample{}).Where("device_serial IN (?)", i.ownedSerials(ownerID))

	if filter.DeviceSerial != "" {
		device, err := i.getOwnedDevice(ownerID, filter.DeviceSerial)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("device_serial = ?", device.Serial)
	}

	explicit := filter.Start != nil || filter.End != nil
	if filter.Start != nil {
		tx = tx.Where("server_ts >= ?", filter.Start.UTC())
	}
	if filter.End != nil {
		tx = tx.Where("server_ts <= ?", filter.End.UTC())
	}

	if filter.Range != "" && !explicit {
		window, err := parseRange(filter.Range)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("server_ts >= ?", i.now().Add(-window))
	}

	switch {
	case filter.Latest:
		tx = tx.Order("server_ts desc").Order("id desc").Limit(1)
	case explicit:
		tx = tx.Order("server_ts asc").Order("id asc").Limit(MaxExplicitRangeCap)
	default:
		limit := filter.Limit
		if limit == 0 {
			limit = DefaultQueryLimit
		}
		limit = max(1, min(limit, MaxQueryLimit))
		tx = tx.Order("server_ts asc").Order("id asc").Limit(limit)
	}

	var samples []models.TelemetrySample
	err := tx.Find(&samples).Error
	return samples, err
}

func (i *IOT) recentSamples(ownerID uint, serial string, limit int) (string, []models.TelemetrySample, error) {
	if limit <= 0 {
		limit = RecentLimit
	}
	limit = min(limit, RecentLimit)

	if serial != "" {
		device, err := i.getOwnedDevice(ownerID, serial)
		if err != nil {
			return "", nil, err
		}
		serial = device.Serial
	} else {
		var newest models.TelemetrySample
		err := i.Db.Conn.
			Where("device_serial IN (?)", i.ownedSerials(ownerID)).
			Order("server_ts desc").
			Order("id desc").
			First(&newest).Error
		if isNotFound(err) {
			return "", []models.TelemetrySample{}, nil
		}
		if err != nil {
			return "", nil, err
		}
		serial = newest.DeviceSerial
	}

	var samples []models.TelemetrySample
	err := i.Db.Conn.
		Where("device_serial = ?", serial).
		Order("server_ts desc").
		Order("id desc").
		Limit(limit).
		Find(&samples).Error
	return serial, samples, err
}

func (i *IOT) deleteSamples(ownerID uint, filter models.DeleteFilter) (int64, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTStorage),
	)

	tx := i.Db.Conn.Where("device_serial IN (?)", i.ownedSerials(ownerID))
	if !filter.All {
		if filter.DeviceSerial == "" {
			return 0, NewMalformedRequestError("Field 'device_id' is required unless deleting all data", "device_id")
		}
		device, err := i.getOwnedDevice(ownerID, filter.DeviceSerial)
		if err != nil {
			return 0, err
		}
		tx = tx.Where("device_serial = ?", device.Serial)
		if filter.From != nil {
			tx = tx.Where("server_ts >= ?", filter.From.UTC())
		}
		if filter.To != nil {
			tx = tx.Where("server_ts < ?", filter.To.UTC())
		}
	}

	result := tx.Delete(&models.TelemetrySample{})
	if result.Error != nil {
		return 0, result.Error
	}

	logger.Info("Deleted telemetry",
		zap.Uint("account_id", ownerID),
		zap.String("serial", filter.DeviceSerial),
		zap.Bool("all", filter.All),
		zap.Int64("count", result.RowsAffected),
	)

	profile, err := i.Storage.GetProfile(ownerID)
	if err != nil {
		return result.RowsAffected, err
	}
	_, err = i.Storage.Recompute(profile)
	return result.RowsAffected, err
}

type ITelemetryImpl struct {
	iot *IOT
}

func (it *ITelemetryImpl) Ingest(ctx context.Context, req models.IngestRequest) (*models.IngestResult, error) {
	return it.iot.ingest(ctx, req)
}

func (it *ITelemetryImpl) Query(ownerID uint, filter models.QueryFilter) ([]models.TelemetrySample, error) {
	return it.iot.querySamples(ownerID, filter)
}

func (it *ITelemetryImpl) Recent(ownerID uint, serial string, limit int) (string, []models.TelemetrySample, error) {
	return it.iot.recentSamples(ownerID, serial, limit)
}

func (it *ITelemetryImpl) DeleteSamples(ownerID uint, filter models.DeleteFilter) (int64, error) {
	return it.iot.deleteSamples(ownerID, filter)
}

func (i *IOT) GetITelemetry() ITelemetry {
	return &ITelemetryImpl{iot: i}
}
