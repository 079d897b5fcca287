package iot

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const (
	maxSerialLength = 64
	maxNameLength   = 100
)

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (i *IOT) registerOrRotateDevice(ownerID uint, serial, name string) (*models.Device, string, time.Time, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTDevice),
	)

	serial = truncate(strings.TrimSpace(serial), maxSerialLength)
	name = truncate(strings.TrimSpace(name), maxNameLength)
	if serial == "" {
		return nil, "", time.Time{}, NewMalformedRequestError("Field 'serial_number' is required", "serial_number")
	}

	var device models.Device
	err := i.Db.Conn.Where("serial = ?", serial).First(&device).Error
	switch {
	case isNotFound(err):
		device = models.Device{
			OwnerID:   ownerID,
			Serial:    serial,
			Name:      name,
			CreatedAt: i.now(),
		}
		if err := i.Db.Conn.Create(&device).Error; err != nil {
			return nil, "", time.Time{}, err
		}
		logger.Info("Registered device", zap.String("serial", serial), zap.Uint("owner_id", ownerID))

	case err != nil:
		return nil, "", time.Time{}, err

	case device.OwnerID != ownerID:
		return nil, "", time.Time{}, NewMalformedRequestError("This device serial is already registered to another user.")

	case name != "" && name != device.Name:
		if err := i.Db.Conn.Model(&device).Update("name", name).Error; err != nil {
			return nil, "", time.Time{}, err
		}
		logger.Info("Renamed device", zap.String("serial", serial), zap.String("name", name))
	}

	credential, secret, err := i.Credential.Rotate(&device, i.Options.CredentialTTL)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return &device, secret, credential.ExpiresAt, nil
}

func (i *IOT) listDevices(ownerID uint) ([]models.Device, error) {
	var devices []models.Device
	err := i.Db.Conn.
		Where("owner_id = ?", ownerID).
		Order("created_at asc").
		Order("id asc").
		Find(&devices).Error
	return devices, err
}

func (i *IOT) getOwnedDevice(ownerID uint, serial string) (*models.Device, error) {
	var device models.Device
	err := i.Db.Conn.Where("serial = ? AND owner_id = ?", serial, ownerID).First(&device).Error
	if isNotFound(err) {
		return nil, errDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// deleteDevice removes the device with its credentials, alert settings and
// alert history, then purges its samples, which are not tied to it by a foreign key.
func (i *IOT) deleteDevice(ownerID uint, serial string) error {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTDevice),
	)

	device, err := i.getOwnedDevice(ownerID, serial)
	if err != nil {
		return err
	}

	var purged int64
	err = i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id = ?", device.ID).Delete(&models.ApiCredential{}).Error; err != nil {
			return err
		}
		if err := tx.Where("device_id = ?", device.ID).Delete(&models.AlertConfig{}).Error; err != nil {
			return err
		}
		// history is keyed by serial and would surface to the next owner
		if err := tx.Where("device_serial = ?", device.Serial).Delete(&models.AlertEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(device).Error; err != nil {
			return err
		}
		result := tx.Where("device_serial = ?", device.Serial).Delete(&models.TelemetrySample{})
		purged = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return err
	}

	logger.Info("Deleted device", zap.String("serial", serial), zap.Int64("samples", purged))

	profile, err := i.Storage.GetProfile(ownerID)
	if err != nil {
		return err
	}
	_, err = i.Storage.Recompute(profile)
	return err
}

func (i *IOT) listDeviceCredentials(ownerID uint, serial string) ([]models.CredentialInfo, error) {
	device, err := i.getOwnedDevice(ownerID, serial)
	if err != nil {
		return nil, err
	}

	credentials, err := i.Credential.List(device.ID)
	if err != nil {
		return nil, err
	}

	return common.Mapper(credentials, func(c models.ApiCredential) models.CredentialInfo {
		return models.CredentialInfo{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			ExpiresAt: c.ExpiresAt,
			Active:    c.Active,
		}
	}), nil
}

func (i *IOT) rotateDeviceCredential(ownerID uint, serial string) (string, time.Time, error) {
	device, err := i.getOwnedDevice(ownerID, serial)
	if err != nil {
		return "", time.Time{}, err
	}

	credential, secret, err := i.Credential.Rotate(device, i.Options.CredentialTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return secret, credential.ExpiresAt, nil
}

func (i *IOT) revokeDeviceCredential(ownerID uint, serial string, credentialID uint) error {
	device, err := i.getOwnedDevice(ownerID, serial)
	if err != nil {
		return err
	}

	var credential models.ApiCredential
	err = i.Db.Conn.Where("id = ? AND device_id = ?", credentialID, device.ID).First(&credential).Error
	if isNotFound(err) {
		return NewNotFoundError("Key not found for this device.")
	}
	if err != nil {
		return err
	}

	return i.Credential.Revoke(&credential)
}

type IDeviceImpl struct {
	iot *IOT
}

func (id *IDeviceImpl) RegisterOrRotateDevice(ownerID uint, serial, name string) (*models.Device, string, time.Time, error) {
	return id.iot.registerOrRotateDevice(ownerID, serial, name)
}

func (id *IDeviceImpl) ListDevices(ownerID uint) ([]models.Device, error) {
	return id.iot.listDevices(ownerID)
}

func (id *IDeviceImpl) GetOwnedDevice(ownerID uint, serial string) (*models.Device, error) {
	return id.iot.getOwnedDevice(ownerID, serial)
}

func (id *IDeviceImpl) DeleteDevice(ownerID uint, serial string) error {
	return id.iot.deleteDevice(ownerID, serial)
}

func (id *IDeviceImpl) ListCredentials(ownerID uint, serial string) ([]models.CredentialInfo, error) {
	return id.iot.listDeviceCredentials(ownerID, serial)
}

func (id *IDeviceImpl) RotateCredential(ownerID uint, serial string) (string, time.Time, error) {
	return id.iot.rotateDeviceCredential(ownerID, serial)
}

func (id *IDeviceImpl) RevokeCredential(ownerID uint, serial string, credentialID uint) error {
	return id.iot.revokeDeviceCredential(ownerID, serial, credentialID)
}

func (i *IOT) GetIDevice() IDevice {
	return &IDeviceImpl{iot: i}
}
