package http

import (
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

type AlertConfigRequest struct {
	Enabled         *bool    `json:"enabled"`
	HighEnabled     *bool    `json:"high_enabled"`
	HighThresholdC  *float64 `json:"high_threshold_c"`
	LowEnabled      *bool    `json:"low_enabled"`
	LowThresholdC   *float64 `json:"low_threshold_c"`
	CooldownMinutes *int     `json:"cooldown_minutes"`
	RecipientEmail  *string  `json:"recipient_email"`
}

var recipientEmailValidator = z.String().Email()

func alertConfigResponse(device *models.Device, config *models.AlertConfig) gin.H {
	return gin.H{
		"device_id":         device.Serial,
		"enabled":           config.Enabled,
		"high_enabled":      config.HighEnabled,
		"high_threshold_c":  config.HighThresholdC,
		"low_enabled":       config.LowEnabled,
		"low_threshold_c":   config.LowThresholdC,
		"cooldown_minutes":  int(config.Cooldown.Minutes()),
		"last_high_sent_at": config.LastHighSentAt,
		"last_low_sent_at":  config.LastLowSentAt,
		"recipient_email":   config.RecipientEmail,
	}
}

func (rs *RestfulServer) GetAlertConfig(c *gin.Context) {
	device, err := rs.Iot.Device.GetOwnedDevice(currentAccountID(c), c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}

	config, err := rs.Iot.Alert.GetAlertConfig(device.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alertConfigResponse(device, config))
}

func (rs *RestfulServer) UpdateAlertConfig(c *gin.Context) {
	device, err := rs.Iot.Device.GetOwnedDevice(currentAccountID(c), c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}

	var req AlertConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, iot.NewMalformedRequestError("Invalid JSON"))
		return
	}
	if req.RecipientEmail != nil && *req.RecipientEmail != "" {
		if issues := recipientEmailValidator.Validate(req.RecipientEmail); len(issues) > 0 {
			writeError(c, iot.NewMalformedRequestError("Invalid fields: recipient_email", "recipient_email"))
			return
		}
	}

	config, err := rs.Iot.Alert.UpsertAlertConfig(device.ID, models.AlertConfigInput{
		Enabled:         req.Enabled,
		HighEnabled:     req.HighEnabled,
		HighThresholdC:  req.HighThresholdC,
		LowEnabled:      req.LowEnabled,
		LowThresholdC:   req.LowThresholdC,
		CooldownMinutes: req.CooldownMinutes,
		RecipientEmail:  req.RecipientEmail,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alertConfigResponse(device, config))
}

func (rs *RestfulServer) GetAlerts(c *gin.Context) {
	device, err := rs.Iot.Device.GetOwnedDevice(currentAccountID(c), c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}

	alerts, err := rs.Iot.Alert.GetDeviceAlerts(device.Serial, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(alerts), "results": alerts})
}
