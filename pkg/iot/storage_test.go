package iot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
	_ "liyu1981.xyz/device-telemetry-service/pkg/testing"
)

type fakeSampleReader struct {
	serials []string
	counts  map[string]int64
	sizes   map[string][]int
	limits  []int
}

func (r *fakeSampleReader) DeviceSerials(uint) ([]string, error) {
	return r.serials, nil
}

func (r *fakeSampleReader) CountSamples(serial string) (int64, error) {
	return r.counts[serial], nil
}

func (r *fakeSampleReader) RecentPayloadSizes(serial string, limit int) ([]int, error) {
	r.limits = append(r.limits, limit)
	return r.sizes[serial], nil
}

func withPlanLimit(limit int64) func(*Options) {
	return func(o *Options) {
		o.PlanLimits = map[models.StoragePlan]int64{models.StoragePlanFree: limit}
	}
}

func withFixedEstimate(size int64) func(*Options) {
	return func(o *Options) {
		o.EstimateSampleSize = func(map[string]any) int64 { return size }
	}
}

func TestEstimateSampleSize(t *testing.T) {
	assert.Equal(t, int64(400), EstimateSampleSize(nil))
	assert.Equal(t, int64(400), EstimateSampleSize(map[string]any{}))

	payload := map[string]any{"mode": "AUTO"}
	data, _ := json.Marshal(payload)
	assert.Equal(t, int64(300+len(data)), EstimateSampleSize(payload))
}

func TestIsFullTracksRecordedBytes(t *testing.T) {
	common.SetTestLoggerNop()

	const limit = 1000
	m := GetMockIOTWithMemorySqliteDialector(t, false, false, withPlanLimit(limit))
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	profile, err := m.iot.Storage.GetProfile(account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StoragePlanFree, profile.Plan)
	assert.False(t, m.iot.Storage.IsFull(profile))

	var recorded int64
	for _, n := range []int64{300, 300, 300, 99, 1, 50} {
		require.NoError(t, m.iot.Storage.RecordIngestedBytes(profile, n))
		recorded += n

		assert.Equal(t, recorded >= limit, m.iot.Storage.IsFull(profile), "after %d bytes", recorded)

		reloaded, err := m.iot.Storage.GetProfile(account.ID)
		require.NoError(t, err)
		assert.Equal(t, recorded, reloaded.CachedUsageBytes)
		assert.Equal(t, recorded >= limit, m.iot.Storage.IsFull(reloaded))
	}
}

func TestHasRoomFor(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false, withPlanLimit(1000))
	defer m.ctrl.Finish()

	profile := &models.StorageProfile{Plan: models.StoragePlanFree, CachedUsageBytes: 600}
	assert.True(t, m.iot.Storage.HasRoomFor(profile, 400))
	assert.False(t, m.iot.Storage.HasRoomFor(profile, 401))

	profile.CachedUsageBytes = 1000
	assert.False(t, m.iot.Storage.HasRoomFor(profile, 0))
}

func TestPlanLimits(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	assert.Equal(t, int64(2*1024*1024*1024), m.iot.Storage.Limit(models.StoragePlanFree))
	assert.Equal(t, int64(10*1024*1024*1024), m.iot.Storage.Limit(models.StoragePlanStandard))
	assert.Equal(t, int64(1024*1024*1024*1024), m.iot.Storage.Limit(models.StoragePlanPremium))
	assert.Equal(t, int64(2*1024*1024*1024), m.iot.Storage.Limit("unknown"))
}

func TestQuotaRejectsWithoutSideEffects(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, true, false, withPlanLimit(1000), withFixedEstimate(400))
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	device, secret := seedDevice(t, m.iot, account)

	m.alert.EXPECT().CheckSample(gomock.Any(), gomock.Any(), 21.5, gomock.Any()).Times(2)

	body := []byte(`{"mode":"HEAT","setpoint_c":22.0,"temp_inside_c":21.5}`)
	req := models.IngestRequest{Header: deviceHeader(device.Serial, secret), Body: body}

	_, err := m.iot.Telemetry.Ingest(context.Background(), req)
	require.NoError(t, err)
	m.clock.Advance(time.Minute)
	_, err = m.iot.Telemetry.Ingest(context.Background(), req)
	require.NoError(t, err)
	lastSeen := m.clock.Now()

	m.clock.Advance(time.Minute)
	_, err = m.iot.Telemetry.Ingest(context.Background(), req)
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorKindStorageLimitExceeded, e.Kind)
	assert.Equal(t, 507, e.HTTPStatus())
	assert.Equal(t, "Storage limit reached (1000 bytes). Please delete old telemetry data or upgrade your plan.", e.Message)

	assert.Equal(t, int64(2), countSamples(t, m.iot, device.Serial))

	var stored models.Device
	require.NoError(t, m.iot.Db.Conn.First(&stored, device.ID).Error)
	require.NotNil(t, stored.LastSeen)
	assert.True(t, lastSeen.Equal(*stored.LastSeen))

	profile, err := m.iot.Storage.GetProfile(account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(800), profile.CachedUsageBytes)
}

func TestRecomputeWithSampleReader(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	reader := &fakeSampleReader{
		serials: []string{"SN-1", "SN-2", "SN-EMPTY"},
		counts:  map[string]int64{"SN-1": 1000, "SN-2": 10},
		sizes: map[string][]int{
			"SN-1": {100, 200, 300},
			"SN-2": {51, 50},
		},
	}
	m.iot.WithServices(ServiceOpts{Samples: reader})

	account := seedAccount(t, m.iot)
	profile, err := m.iot.Storage.GetProfile(account.ID)
	require.NoError(t, err)
	require.NoError(t, m.iot.Storage.RecordIngestedBytes(profile, 123456789))

	total, err := m.iot.Storage.Recompute(profile)
	require.NoError(t, err)

	expected := int64(1000*(200+200+100) + 10*(200+50+100))
	assert.Equal(t, expected, total)
	assert.Equal(t, expected, profile.CachedUsageBytes)
	require.NotNil(t, profile.LastCalculatedAt)
	assert.True(t, m.clock.Now().Equal(*profile.LastCalculatedAt))
	assert.Equal(t, []int{100, 100}, reader.limits, "empty devices are not sampled")

	reloaded, err := m.iot.Storage.GetProfile(account.ID)
	require.NoError(t, err)
	assert.Equal(t, expected, reloaded.CachedUsageBytes)
}

func TestRecomputeFromStoredSamples(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	device, secret := seedDevice(t, m.iot, account)

	bodies := []string{
		`{"mode":"OFF","setpoint_c":20,"temp_inside_c":19}`,
		`{"mode":"HEAT","setpoint_c":21.5,"temp_inside_c":19.25,"humidity_percent":40}`,
	}
	sum := 0
	for _, body := range bodies {
		_, err := m.iot.Telemetry.Ingest(context.Background(), models.IngestRequest{
			Header: deviceHeader(device.Serial, secret),
			Body:   []byte(body),
		})
		require.NoError(t, err)
		sum += len(body)
		m.clock.Advance(time.Second)
	}

	profile, err := m.iot.Storage.GetProfile(account.ID)
	require.NoError(t, err)
	total, err := m.iot.Storage.Recompute(profile)
	require.NoError(t, err)

	avg := int64(sum / len(bodies))
	assert.Equal(t, int64(len(bodies))*(200+avg+100), total)
}

func TestStorageSummary(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false, withPlanLimit(4096))
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	seedDevice(t, m.iot, account)
	seedDevice(t, m.iot, account)

	profile, err := m.iot.Storage.GetProfile(account.ID)
	require.NoError(t, err)
	require.NoError(t, m.iot.Storage.RecordIngestedBytes(profile, 1024))

	summary, err := m.iot.Storage.Summary(account.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StoragePlanFree, summary.Plan)
	assert.Equal(t, int64(1024), summary.UsageBytes)
	assert.Equal(t, int64(4096), summary.LimitBytes)
	assert.Equal(t, int64(3072), summary.RemainingBytes)
	assert.InDelta(t, 25.0, summary.UsagePercentage, 0.001)
	assert.Equal(t, "1.00 KB", summary.UsageDisplay)
	assert.Equal(t, "3.00 KB", summary.RemainingDisplay)
	assert.Equal(t, int64(2), summary.DeviceCount)
	assert.Zero(t, summary.SampleCount)
	assert.False(t, summary.IsFull)
}

func TestRecomputeStale(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	profile, err := m.iot.Storage.GetProfile(account.ID)
	require.NoError(t, err)
	require.NoError(t, m.iot.Storage.RecordIngestedBytes(profile, 999))

	done, err := m.iot.RecomputeStale(time.Hour)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, done, 1)

	reloaded, err := m.iot.Storage.GetProfile(account.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.CachedUsageBytes)
	require.NotNil(t, reloaded.LastCalculatedAt)
}
