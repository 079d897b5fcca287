package iot

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const deviceAuthScheme = "Device "

// parseDeviceHeader splits "Device <serial>:<secret>".
func parseDeviceHeader(header string) (string, string, error) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, deviceAuthScheme) {
		return "", "", NewUnauthenticatedError(MessageMissingAuthHeader)
	}

	serial, secret, found := strings.Cut(strings.TrimSpace(header[len(deviceAuthScheme):]), ":")
	serial = strings.TrimSpace(serial)
	secret = strings.TrimSpace(secret)
	if !found || serial == "" || secret == "" {
		return "", "", NewUnauthenticatedError(MessageInvalidCredFormat)
	}
	return serial, secret, nil
}

func (i *IOT) authenticate(header string) (*models.Device, error) {
	serial, secret, err := parseDeviceHeader(header)
	if err != nil {
		return nil, err
	}

	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAuth),
	)

	// hashed before any lookup, so unknown serials cost the same as wrong secrets
	keyHash := i.Credential.Hash(secret)

	var credential models.ApiCredential
	err = i.Db.Conn.
		Joins("JOIN devices ON devices.id = api_credentials.device_id").
		Where("api_credentials.key_hash = ? AND devices.serial = ? AND api_credentials.active = ?", keyHash, serial, true).
		Order("api_credentials.expires_at desc").
		Preload("Device.Owner").
		First(&credential).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err != nil || !i.Credential.IsValid(&credential, i.now()) {
		logger.Info("Rejected device credentials", zap.String("serial", serial))
		return nil, errInvalidCredentials
	}

	return credential.Device, nil
}

type IAuthImpl struct {
	iot *IOT
}

func (ia *IAuthImpl) Authenticate(header string) (*models.Device, error) {
	return ia.iot.authenticate(header)
}

func (i *IOT) GetIAuth() IAuth {
	return &IAuthImpl{iot: i}
}
