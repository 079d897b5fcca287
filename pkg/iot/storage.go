package iot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const (
	rowBaseOverheadBytes  = 200
	rowIndexOverheadBytes = 100
	recomputeSampleRows   = 100

	ingestBaseEstimateBytes  = 300
	ingestEmptyEstimateBytes = 400
)

// EstimateSampleSize is the optimistic per sample cost added on ingest.
func EstimateSampleSize(payload map[string]any) int64 {
	if len(payload) == 0 {
		return ingestEmptyEstimateBytes
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ingestEmptyEstimateBytes
	}
	return int64(ingestBaseEstimateBytes + len(data))
}

// SampleReader is the read side recompute samples from.
type SampleReader interface {
	DeviceSerials(accountID uint) ([]string, error)
	CountSamples(serial string) (int64, error)
	RecentPayloadSizes(serial string, limit int) ([]int, error)
}

type GormSampleReader struct {
	Conn *gorm.DB
}

func (r *GormSampleReader) DeviceSerials(accountID uint) ([]string, error) {
	var serials []string
	err := r.Conn.Model(&models.Device{}).Where("owner_id = ?", accountID).Pluck("serial", &serials).Error
	return serials, err
}

func (r *GormSampleReader) CountSamples(serial string) (int64, error) {
	var count int64
	err := r.Conn.Model(&models.TelemetrySample{}).Where("device_serial = ?", serial).Count(&count).Error
	return count, err
}

func (r *GormSampleReader) RecentPayloadSizes(serial string, limit int) ([]int, error) {
	var payloads []datatypes.JSON
	err := r.Conn.Model(&models.TelemetrySample{}).
		Where("device_serial = ?", serial).
		Order("server_ts desc").
		Limit(limit).
		Pluck("raw_payload", &payloads).Error
	if err != nil {
		return nil, err
	}

	sizes := make([]int, 0, len(payloads))
	for _, payload := range payloads {
		sizes = append(sizes, len(payload))
	}
	return sizes, nil
}

func (i *IOT) sampleReader() SampleReader {
	return &GormSampleReader{Conn: i.Db.Conn}
}

func (i *IOT) limitFor(plan models.StoragePlan) int64 {
	if limit, ok := i.Options.PlanLimits[plan]; ok {
		return limit
	}
	return i.Options.PlanLimits[models.StoragePlanFree]
}

func (i *IOT) getStorageProfile(accountID uint) (*models.StorageProfile, error) {
	var profile models.StorageProfile
	err := i.Db.Conn.
		Where(models.StorageProfile{AccountID: accountID}).
		Attrs(models.StorageProfile{Plan: models.StoragePlanFree}).
		FirstOrCreate(&profile).Error
	if err != nil {
		// lost a create race on the unique account index
		if retry := i.Db.Conn.Where("account_id = ?", accountID).First(&profile).Error; retry == nil {
			return &profile, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (i *IOT) isStorageFull(profile *models.StorageProfile) bool {
	return profile.CachedUsageBytes >= i.limitFor(profile.Plan)
}

func (i *IOT) hasRoomFor(profile *models.StorageProfile, size int64) bool {
	return !i.isStorageFull(profile) && profile.CachedUsageBytes+size <= i.limitFor(profile.Plan)
}

func (i *IOT) recordIngestedBytes(profile *models.StorageProfile, size int64) error {
	err := i.Db.Conn.Model(&models.StorageProfile{}).
		Where("id = ?", profile.ID).
		UpdateColumn("cached_usage_bytes", gorm.Expr("cached_usage_bytes + ?", size)).Error
	if err != nil {
		return err
	}
	profile.CachedUsageBytes += size
	return nil
}

func (i *IOT) recomputeStorage(profile *models.StorageProfile) (int64, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTStorage),
	)

	reader := i.Samples
	if reader == nil {
		reader = i.sampleReader()
	}

	serials, err := reader.DeviceSerials(profile.AccountID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, serial := range serials {
		count, err := reader.CountSamples(serial)
		if err != nil {
			return 0, err
		}
		if count == 0 {
			continue
		}

		sizes, err := reader.RecentPayloadSizes(serial, recomputeSampleRows)
		if err != nil {
			return 0, err
		}
		var avg int64
		if len(sizes) > 0 {
			sum := 0
			for _, size := range sizes {
				sum += size
			}
			avg = int64(sum / len(sizes))
		}

		total += count * (rowBaseOverheadBytes + avg + rowIndexOverheadBytes)
	}

	now := i.now()
	err = i.Db.Conn.Model(&models.StorageProfile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]any{
			"cached_usage_bytes": total,
			"last_calculated_at": now,
		}).Error
	if err != nil {
		return 0, err
	}

	profile.CachedUsageBytes = total
	profile.LastCalculatedAt = &now

	logger.Info("Recomputed storage usage",
		zap.Uint("account_id", profile.AccountID),
		zap.Int("devices", len(serials)),
		zap.Int64("bytes", total),
	)
	return total, nil
}

func (i *IOT) storageSummary(accountID uint) (*models.StorageSummary, error) {
	profile, err := i.getStorageProfile(accountID)
	if err != nil {
		return nil, err
	}

	limit := i.limitFor(profile.Plan)
	remaining := max(0, limit-profile.CachedUsageBytes)
	percentage := 100.0
	if limit > 0 {
		percentage = min(100.0, float64(profile.CachedUsageBytes)/float64(limit)*100)
	}

	summary := &models.StorageSummary{
		Plan:             profile.Plan,
		UsageBytes:       profile.CachedUsageBytes,
		LimitBytes:       limit,
		RemainingBytes:   remaining,
		UsagePercentage:  percentage,
		UsageDisplay:     common.FormatBytes(profile.CachedUsageBytes),
		LimitDisplay:     common.FormatLimit(limit),
		RemainingDisplay: common.FormatBytes(remaining),
		IsFull:           i.isStorageFull(profile),
		LastCalculatedAt: profile.LastCalculatedAt,
	}

	if err := i.Db.Conn.Model(&models.Device{}).Where("owner_id = ?", accountID).Count(&summary.DeviceCount).Error; err != nil {
		return nil, err
	}
	err = i.Db.Conn.Model(&models.TelemetrySample{}).
		Where("device_serial IN (?)", i.Db.Conn.Model(&models.Device{}).Select("serial").Where("owner_id = ?", accountID)).
		Count(&summary.SampleCount).Error
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// RecomputeStale recomputes every profile whose estimate is older than
// maxAge, or was never computed.
func (i *IOT) RecomputeStale(maxAge time.Duration) (int, error) {
	var profiles []models.StorageProfile
	cutoff := i.now().Add(-maxAge)
	err := i.Db.Conn.
		Where("last_calculated_at IS NULL OR last_calculated_at < ?", cutoff).
		Find(&profiles).Error
	if err != nil {
		return 0, err
	}

	done := 0
	var errs []error
	for idx := range profiles {
		if _, err := i.Storage.Recompute(&profiles[idx]); err != nil {
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// StorageRecomputer periodically corrects drift in the cached usage counters.
type StorageRecomputer struct {
	iot      *IOT
	interval time.Duration
}

func NewStorageRecomputer(iot *IOT, interval time.Duration) *StorageRecomputer {
	return &StorageRecomputer{iot: iot, interval: interval}
}

func (r *StorageRecomputer) Start(ctx context.Context) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTStorage),
	)

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				done, err := r.iot.RecomputeStale(r.interval)
				if err != nil {
					logger.Error("Storage recompute failed", zap.Int("recomputed", done), zap.Error(err))
					continue
				}
				if done > 0 {
					logger.Info("Storage recompute pass finished", zap.Int("recomputed", done))
				}
			}
		}
	}()
}

type IStorageImpl struct {
	iot *IOT
}

func (is *IStorageImpl) GetProfile(accountID uint) (*models.StorageProfile, error) {
	return is.iot.getStorageProfile(accountID)
}

func (is *IStorageImpl) Limit(plan models.StoragePlan) int64 {
	return is.iot.limitFor(plan)
}

func (is *IStorageImpl) IsFull(profile *models.StorageProfile) bool {
	return is.iot.isStorageFull(profile)
}

func (is *IStorageImpl) HasRoomFor(profile *models.StorageProfile, size int64) bool {
	return is.iot.hasRoomFor(profile, size)
}

func (is *IStorageImpl) RecordIngestedBytes(profile *models.StorageProfile, size int64) error {
	return is.iot.recordIngestedBytes(profile, size)
}

func (is *IStorageImpl) Recompute(profile *models.StorageProfile) (int64, error) {
	return is.iot.recomputeStorage(profile)
}

func (is *IStorageImpl) Summary(accountID uint) (*models.StorageSummary, error) {
	return is.iot.storageSummary(accountID)
}

func (i *IOT) GetIStorage() IStorage {
	return &IStorageImpl{iot: i}
}
