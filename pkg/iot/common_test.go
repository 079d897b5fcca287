package iot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/device-telemetry-service/pkg/db"
	"liyu1981.xyz/device-telemetry-service/pkg/iot/mocks"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 11, 21, 6, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockIOT struct {
	ctrl    *gomock.Controller
	iot     *IOT
	clock   *testClock
	mailer  *mocks.MockMailer
	alert   *mocks.MockIAlert
	limiter *mocks.MockRateLimiter
}

// GetMockIOTWithMemorySqliteDialector wires an IOT over the shared in-memory
// database with a controllable clock and a mocked mailer.
func GetMockIOTWithMemorySqliteDialector(t *testing.T, useMockIAlert, useMockLimiter bool, opts ...func(*Options)) *mockIOT {
	ctrl := gomock.NewController(t)

	clock := newTestClock()
	options := Options{
		Pepper: "test-pepper",
		Now:    clock.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dbInstance := db.GetInstance(db.UseMemorySqliteDialector()) // ensure migrations
	iotInstance := New(dbInstance, options)

	m := &mockIOT{
		ctrl:    ctrl,
		iot:     iotInstance,
		clock:   clock,
		mailer:  mocks.NewMockMailer(ctrl),
		alert:   mocks.NewMockIAlert(ctrl),
		limiter: mocks.NewMockRateLimiter(ctrl),
	}

	services := ServiceOpts{Mailer: m.mailer}
	if useMockIAlert {
		services.Alert = m.alert
	}
	if useMockLimiter {
		services.Limiter = m.limiter
	}
	iotInstance.WithServices(services)

	return m
}

func seedAccount(t *testing.T, i *IOT) *models.Account {
	t.Helper()

	name := uuid.NewString()
	account := models.Account{
		Username:  name,
		Email:     fmt.Sprintf("%s@example.com", name),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, i.Db.Conn.Create(&account).Error)
	return &account
}

// seedDevice registers a fresh serial for account and returns its secret.
func seedDevice(t *testing.T, i *IOT, account *models.Account) (*models.Device, string) {
	t.Helper()

	device, secret, _, err := i.Device.RegisterOrRotateDevice(account.ID, "SN-"+uuid.NewString()[:18], "Living Room")
	require.NoError(t, err)
	return device, secret
}

func deviceHeader(serial, secret string) string {
	return fmt.Sprintf("Device %s:%s", serial, secret)
}

func countSamples(t *testing.T, i *IOT, serial string) int64 {
	t.Helper()

	var count int64
	require.NoError(t, i.Db.Conn.Model(&models.TelemetrySample{}).Where("device_serial = ?", serial).Count(&count).Error)
	return count
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
