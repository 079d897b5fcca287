package iot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const maxAlertHistory = 200

// MaxCooldownMinutes is 30 days.
const MaxCooldownMinutes = 30 * 24 * 60

func displayName(device *models.Device) string {
	if device.Name != "" {
		return device.Name
	}
	return device.Serial
}

func alertMessage(device *models.Device, direction models.AlertDirection, measuredC, thresholdC float64) (string, string) {
	name := displayName(device)

	if direction == models.AlertDirectionHigh {
		subject := fmt.Sprintf("🔴 High Temperature Alert - %s", name)
		body := fmt.Sprintf(
			"Temperature alert for your thermostat device.\n\n"+
				"Device: %s\n"+
				"Current Temperature: %.1f°C\n"+
				"High Threshold: %.1f°C\n\n"+
				"The temperature has exceeded your configured high threshold.\n\n"+
				"--\nTelemetry Alert System",
			name, measuredC, thresholdC,
		)
		return subject, body
	}

	subject := fmt.Sprintf("🔵 Low Temperature Alert - %s", name)
	body := fmt.Sprintf(
		"Temperature alert for your thermostat device.\n\n"+
			"Device: %s\n"+
			"Current Temperature: %.1f°C\n"+
			"Low Threshold: %.1f°C\n\n"+
			"The temperature has dropped below your configured low threshold.\n\n"+
			"--\nTelemetry Alert System",
		name, measuredC, thresholdC,
	)
	return subject, body
}

func (i *IOT) alertRecipient(device *models.Device, config *models.AlertConfig) string {
	if config.RecipientEmail != nil && strings.TrimSpace(*config.RecipientEmail) != "" {
		return strings.TrimSpace(*config.RecipientEmail)
	}
	if device.Owner != nil {
		return device.Owner.Email
	}

	var owner models.Account
	if err := i.Db.Conn.First(&owner, device.OwnerID).Error; err != nil {
		return ""
	}
	return owner.Email
}

func (i *IOT) evaluateAlerts(
	ctx context.Context,
	device *models.Device,
	config *models.AlertConfig,
	measuredC float64,
	now time.Time,
) []models.AlertDirection {
	if !config.Enabled {
		return nil
	}

	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAlert),
	)

	type check struct {
		direction models.AlertDirection
		enabled   bool
		crossed   bool
		threshold float64
		column    string
	}
	checks := []check{
		{models.AlertDirectionHigh, config.HighEnabled, measuredC >= config.HighThresholdC, config.HighThresholdC, "last_high_sent_at"},
		{models.AlertDirectionLow, config.LowEnabled, measuredC <= config.LowThresholdC, config.LowThresholdC, "last_low_sent_at"},
	}

	var recipient string
	var sent []models.AlertDirection
	for _, c := range checks {
		if !c.enabled || !c.crossed {
			continue
		}
		if last := config.LastSent(c.direction); last != nil && now.Sub(*last) < config.Cooldown {
			logger.Debug("Alert suppressed by cooldown",
				zap.String("serial", device.Serial),
				zap.String("direction", string(c.direction)),
			)
			continue
		}

		if recipient == "" {
			recipient = i.alertRecipient(device, config)
			if recipient == "" {
				logger.Warn("No recipient email for device alerts", zap.String("serial", device.Serial))
				return sent
			}
		}

		if i.Mailer == nil {
			logger.Error("Mailer not available, alert dropped", zap.String("serial", device.Serial))
			return sent
		}

		subject, body := alertMessage(device, c.direction, measuredC, c.threshold)
		if err := i.Mailer.Send(ctx, recipient, subject, body); err != nil {
			logger.Error("Failed to send alert",
				zap.String("serial", device.Serial),
				zap.String("direction", string(c.direction)),
				zap.Error(err),
			)
			continue
		}

		err := i.Db.Conn.Model(&models.AlertConfig{}).
			Where("id = ?", config.ID).
			UpdateColumn(c.column, now).Error
		if err != nil {
			logger.Error("Failed to record alert send time", zap.String("serial", device.Serial), zap.Error(err))
		}
		sentAt := now
		if c.direction == models.AlertDirectionHigh {
			config.LastHighSentAt = &sentAt
		} else {
			config.LastLowSentAt = &sentAt
		}

		event := models.AlertEvent{
			DeviceSerial: device.Serial,
			Direction:    c.direction,
			MeasuredC:    measuredC,
			ThresholdC:   c.threshold,
			Recipient:    recipient,
			SentAt:       now,
		}
		if err := i.Db.Conn.Create(&event).Error; err != nil {
			logger.Error("Failed to save alert event", zap.String("serial", device.Serial), zap.Error(err))
		}

		logger.Info("Sent alert",
			zap.String("serial", device.Serial),
			zap.String("direction", string(c.direction)),
			zap.String("recipient", recipient),
		)
		sent = append(sent, c.direction)
	}
	return sent
}

func (i *IOT) checkSample(ctx context.Context, device *models.Device, measuredC float64, now time.Time) []models.AlertDirection {
	var config models.AlertConfig
	result := i.Db.Conn.Where("device_id = ?", device.ID).Limit(1).Find(&config)
	if result.Error != nil || result.RowsAffected == 0 {
		// no config, then no alerts
		return nil
	}
	return i.Alert.Evaluate(ctx, device, &config, measuredC, now)
}

func (i *IOT) getAlertConfig(deviceID uint) (*models.AlertConfig, error) {
	config := models.DefaultAlertConfig(deviceID)
	err := i.Db.Conn.Where("device_id = ?", deviceID).Attrs(config).FirstOrCreate(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (i *IOT) upsertAlertConfig(deviceID uint, input models.AlertConfigInput) (*models.AlertConfig, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAlert),
	)

	config, err := i.getAlertConfig(deviceID)
	if err != nil {
		return nil, err
	}

	if input.Enabled != nil {
		config.Enabled = *input.Enabled
	}
	if input.HighEnabled != nil {
		config.HighEnabled = *input.HighEnabled
	}
	if input.HighThresholdC != nil {
		config.HighThresholdC = *input.HighThresholdC
	}
	if input.LowEnabled != nil {
		config.LowEnabled = *input.LowEnabled
	}
	if input.LowThresholdC != nil {
		config.LowThresholdC = *input.LowThresholdC
	}
	if input.CooldownMinutes != nil {
		if *input.CooldownMinutes < 0 || *input.CooldownMinutes > MaxCooldownMinutes {
			return nil, NewMalformedRequestError(
				fmt.Sprintf("Cooldown must be between 0 and %d minutes", MaxCooldownMinutes),
				"cooldown_minutes",
			)
		}
		config.Cooldown = time.Duration(*input.CooldownMinutes) * time.Minute
	}
	if input.RecipientEmail != nil {
		if email := strings.TrimSpace(*input.RecipientEmail); email != "" {
			config.RecipientEmail = &email
		} else {
			config.RecipientEmail = nil
		}
	}

	if err := i.Db.Conn.Save(config).Error; err != nil {
		return nil, err
	}

	logger.Info("Upserted alert config for device", zap.Uint("device_id", deviceID), zap.Reflect("config", config))
	return config, nil
}

func (i *IOT) getDeviceAlerts(serial string, limit int) ([]models.AlertEvent, error) {
	if limit <= 0 || limit > maxAlertHistory {
		limit = maxAlertHistory
	}

	var alerts []models.AlertEvent
	err := i.Db.Conn.
		Where("device_serial = ?", serial).
		Order("sent_at desc").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

// dispatchAlerts hands the sample to the queue when one is running, and
// evaluates inline otherwise. It never reports failure to the caller.
func (i *IOT) dispatchAlerts(ctx context.Context, device *models.Device, measuredC float64, now time.Time) {
	if i.Alert == nil {
		return
	}
	if i.AlertQueue != nil {
		i.AlertQueue.Enqueue(AlertJob{Device: device, MeasuredC: measuredC, At: now})
		return
	}
	i.Alert.CheckSample(ctx, device, measuredC, now)
}

type IAlertImpl struct {
	iot *IOT
}

func (ia *IAlertImpl) CheckSample(ctx context.Context, device *models.Device, measuredC float64, now time.Time) []models.AlertDirection {
	return ia.iot.checkSample(ctx, device, measuredC, now)
}

func (ia *IAlertImpl) Evaluate(
	ctx context.Context,
	device *models.Device,
	config *models.AlertConfig,
	measuredC float64,
	now time.Time,
) []models.AlertDirection {
	return ia.iot.evaluateAlerts(ctx, device, config, measuredC, now)
}

func (ia *IAlertImpl) GetAlertConfig(deviceID uint) (*models.AlertConfig, error) {
	return ia.iot.getAlertConfig(deviceID)
}

func (ia *IAlertImpl) UpsertAlertConfig(deviceID uint, input models.AlertConfigInput) (*models.AlertConfig, error) {
	return ia.iot.upsertAlertConfig(deviceID, input)
}

func (ia *IAlertImpl) GetDeviceAlerts(serial string, limit int) ([]models.AlertEvent, error) {
	return ia.iot.getDeviceAlerts(serial, limit)
}

func (i *IOT) GetIAlert() IAlert {
	return &IAlertImpl{iot: i}
}
