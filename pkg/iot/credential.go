package iot

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const credentialSecretBytes = 32

func generateSecret() (string, error) {
	buf := make([]byte, credentialSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (i *IOT) hashSecret(secret string) string {
	mac := hmac.New(sha256.New, []byte(i.Options.Pepper))
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

func (i *IOT) createCredential(tx *gorm.DB, device *models.Device, ttl time.Duration) (*models.ApiCredential, string, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, "", err
	}

	now := i.now()
	credential := models.ApiCredential{
		DeviceID:  device.ID,
		KeyHash:   i.hashSecret(secret),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Active:    true,
	}
	if err := tx.Create(&credential).Error; err != nil {
		return nil, "", err
	}

	return &credential, secret, nil
}

func (i *IOT) rotateCredential(device *models.Device, ttl time.Duration) (*models.ApiCredential, string, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTCredential),
	)

	var credential *models.ApiCredential
	var secret string
	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ApiCredential{}).
			Where("device_id = ? AND active = ?", device.ID, true).
			Update("active", false)
		if result.Error != nil {
			return result.Error
		}
		logger.Info("Deactivated credentials for device",
			zap.String("serial", device.Serial),
			zap.Int64("count", result.RowsAffected),
		)

		var err error
		credential, secret, err = i.createCredential(tx, device, ttl)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	logger.Info("Issued credential for device",
		zap.String("serial", device.Serial),
		zap.Uint("credential_id", credential.ID),
		zap.Time("expires_at", credential.ExpiresAt),
	)
	return credential, secret, nil
}

func (i *IOT) revokeCredential(credential *models.ApiCredential) error {
	err := i.Db.Conn.Model(&models.ApiCredential{}).
		Where("id = ?", credential.ID).
		Update("active", false).Error
	if err != nil {
		return err
	}
	credential.Active = false
	return nil
}

func (i *IOT) listCredentials(deviceID uint) ([]models.ApiCredential, error) {
	var credentials []models.ApiCredential
	err := i.Db.Conn.
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Order("id desc").
		Find(&credentials).Error
	return credentials, err
}

type ICredentialImpl struct {
	iot *IOT
}

func (ic *ICredentialImpl) Create(device *models.Device, ttl time.Duration) (*models.ApiCredential, string, error) {
	return ic.iot.createCredential(ic.iot.Db.Conn, device, ttl)
}

func (ic *ICredentialImpl) Rotate(device *models.Device, ttl time.Duration) (*models.ApiCredential, string, error) {
	return ic.iot.rotateCredential(device, ttl)
}

func (ic *ICredentialImpl) Revoke(credential *models.ApiCredential) error {
	return ic.iot.revokeCredential(credential)
}

func (ic *ICredentialImpl) List(deviceID uint) ([]models.ApiCredential, error) {
	return ic.iot.listCredentials(deviceID)
}

func (ic *ICredentialImpl) Hash(secret string) string {
	return ic.iot.hashSecret(secret)
}

func (ic *ICredentialImpl) IsValid(credential *models.ApiCredential, now time.Time) bool {
	return credential.IsValidAt(now)
}

func (i *IOT) GetICredential() ICredential {
	return &ICredentialImpl{iot: i}
}
