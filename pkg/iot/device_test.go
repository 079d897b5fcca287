package iot

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
	_ "liyu1981.xyz/device-telemetry-service/pkg/testing"
)

func TestRegisterDevice(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	serial := "SN-" + uuid.NewString()[:18]

	device, secret, expiresAt, err := m.iot.Device.RegisterOrRotateDevice(account.ID, "  "+serial+" ", "Hallway")
	require.NoError(t, err)
	assert.Equal(t, serial, device.Serial)
	assert.Equal(t, "Hallway", device.Name)
	assert.Equal(t, account.ID, device.OwnerID)
	assert.NotEmpty(t, secret)
	assert.True(t, m.clock.Now().Add(365*24*time.Hour).Equal(expiresAt))

	authed, err := m.iot.Auth.Authenticate(deviceHeader(serial, secret))
	require.NoError(t, err)
	assert.Equal(t, device.ID, authed.ID)

	// registering again renames and rotates
	again, newSecret, _, err := m.iot.Device.RegisterOrRotateDevice(account.ID, serial, "Upstairs Hallway")
	require.NoError(t, err)
	assert.Equal(t, device.ID, again.ID)
	assert.Equal(t, "Upstairs Hallway", again.Name)
	assert.NotEqual(t, secret, newSecret)

	_, err = m.iot.Auth.Authenticate(deviceHeader(serial, secret))
	assert.True(t, IsKind(err, ErrorKindForbidden))
	_, err = m.iot.Auth.Authenticate(deviceHeader(serial, newSecret))
	assert.NoError(t, err)

	// an empty name keeps the current one
	kept, _, _, err := m.iot.Device.RegisterOrRotateDevice(account.ID, serial, "")
	require.NoError(t, err)
	assert.Equal(t, "Upstairs Hallway", kept.Name)
}

func TestRegisterDeviceValidation(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	owner := seedAccount(t, m.iot)
	device, _ := seedDevice(t, m.iot, owner)

	_, _, _, err := m.iot.Device.RegisterOrRotateDevice(owner.ID, "   ", "Nameless")
	assert.True(t, IsKind(err, ErrorKindMalformedRequest))

	intruder := seedAccount(t, m.iot)
	_, _, _, err = m.iot.Device.RegisterOrRotateDevice(intruder.ID, device.Serial, "Mine now")
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 400, e.HTTPStatus())
	assert.Equal(t, "This device serial is already registered to another user.", e.Message)

	long, _, _, err := m.iot.Device.RegisterOrRotateDevice(owner.ID, uuid.NewString()+strings.Repeat("x", 70), strings.Repeat("n", 150))
	require.NoError(t, err)
	assert.Len(t, long.Serial, 64)
	assert.Len(t, long.Name, 100)

	// a two byte rune straddling the limit is dropped whole
	prefix := uuid.NewString() + strings.Repeat("x", 27)
	accented, _, _, err := m.iot.Device.RegisterOrRotateDevice(owner.ID, prefix+"éé", strings.Repeat("n", 99)+"üü")
	require.NoError(t, err)
	assert.Equal(t, prefix, accented.Serial)
	assert.Equal(t, strings.Repeat("n", 99), accented.Name)
	assert.True(t, utf8.ValidString(accented.Serial))
	assert.True(t, utf8.ValidString(accented.Name))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcd", 2))
	assert.Equal(t, "a", truncate("aé", 2))
	assert.Equal(t, "aé", truncate("aé", 3))
	assert.Equal(t, "", truncate("日本", 2))
	assert.Equal(t, "日", truncate("日本", 4))
}

func TestListDevices(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	first, _ := seedDevice(t, m.iot, account)
	m.clock.Advance(time.Second)
	second, _ := seedDevice(t, m.iot, account)
	seedDevice(t, m.iot, seedAccount(t, m.iot))

	devices, err := m.iot.Device.ListDevices(account.ID)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, first.Serial, devices[0].Serial)
	assert.Equal(t, second.Serial, devices[1].Serial)
}

func TestDeleteDevice(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	device, secret := seedDevice(t, m.iot, account)
	keep, keepSecret := seedDevice(t, m.iot, account)
	ingestN(t, m, device, secret, 3)
	ingestN(t, m, keep, keepSecret, 1)
	_, err := m.iot.Alert.GetAlertConfig(device.ID)
	require.NoError(t, err)

	stranger := seedAccount(t, m.iot)
	assert.True(t, IsKind(m.iot.Device.DeleteDevice(stranger.ID, device.Serial), ErrorKindNotFound))

	require.NoError(t, m.iot.Device.DeleteDevice(account.ID, device.Serial))

	_, err = m.iot.Device.GetOwnedDevice(account.ID, device.Serial)
	assert.True(t, IsKind(err, ErrorKindNotFound))
	assert.Zero(t, countSamples(t, m.iot, device.Serial))
	assert.Equal(t, int64(1), countSamples(t, m.iot, keep.Serial))

	var credentials, configs int64
	require.NoError(t, m.iot.Db.Conn.Model(&models.ApiCredential{}).Where("device_id = ?", device.ID).Count(&credentials).Error)
	require.NoError(t, m.iot.Db.Conn.Model(&models.AlertConfig{}).Where("device_id = ?", device.ID).Count(&configs).Error)
	assert.Zero(t, credentials)
	assert.Zero(t, configs)

	_, err = m.iot.Auth.Authenticate(deviceHeader(device.Serial, secret))
	assert.True(t, IsKind(err, ErrorKindForbidden))

	// the serial is free to claim again
	_, _, _, err = m.iot.Device.RegisterOrRotateDevice(stranger.ID, device.Serial, "")
	assert.NoError(t, err)
}

func TestDeviceCredentials(t *testing.T) {
	common.SetTestLoggerNop()

	m := GetMockIOTWithMemorySqliteDialector(t, false, false)
	defer m.ctrl.Finish()

	account := seedAccount(t, m.iot)
	device, oldSecret := seedDevice(t, m.iot, account)

	m.clock.Advance(time.Hour)
	secret, expiresAt, err := m.iot.Device.RotateCredential(account.ID, device.Serial)
	require.NoError(t, err)
	assert.True(t, m.clock.Now().Add(m.iot.Options.CredentialTTL).Equal(expiresAt))

	infos, err := m.iot.Device.ListCredentials(account.ID, device.Serial)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.True(t, infos[0].Active, "newest first")
	assert.False(t, infos[1].Active)

	_, err = m.iot.Auth.Authenticate(deviceHeader(device.Serial, oldSecret))
	assert.Error(t, err)
	_, err = m.iot.Telemetry.Ingest(context.Background(), models.IngestRequest{
		Header: deviceHeader(device.Serial, secret),
		Body:   []byte(sampleBody),
	})
	require.NoError(t, err)

	err = m.iot.Device.RevokeCredential(account.ID, device.Serial, 999999999)
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 404, e.HTTPStatus())
	assert.Equal(t, "Key not found for this device.", e.Message)

	require.NoError(t, m.iot.Device.RevokeCredential(account.ID, device.Serial, infos[0].ID))
	require.NoError(t, m.iot.Device.RevokeCredential(account.ID, device.Serial, infos[0].ID))
	_, err = m.iot.Auth.Authenticate(deviceHeader(device.Serial, secret))
	assert.True(t, IsKind(err, ErrorKindForbidden))

	stranger := seedAccount(t, m.iot)
	_, err = m.iot.Device.ListCredentials(stranger.ID, device.Serial)
	assert.True(t, IsKind(err, ErrorKindNotFound))
	_, _, err = m.iot.Device.RotateCredential(stranger.ID, device.Serial)
	assert.True(t, IsKind(err, ErrorKindNotFound))
}
