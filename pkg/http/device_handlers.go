package http

import (
	"net/http"
	"strconv"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

type RegisterDeviceRequest struct {
	SerialNumber string `json:"serial_number"`
	Name         string `json:"name"`
}

var registerDeviceSchema = z.Struct(z.Shape{
	"SerialNumber": z.String().Trim().Required(),
	"Name":         z.String().Trim().Max(100),
})

func deviceResponse(device *models.Device) gin.H {
	return gin.H{
		"id":            device.ID,
		"serial_number": device.Serial,
		"name":          device.Name,
		"created_at":    device.CreatedAt,
	}
}

func (rs *RestfulServer) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if !bindAndValidate(c, registerDeviceSchema, &req) {
		return
	}

	account, err := rs.Iot.Account.GetAccount(currentAccountID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	device, secret, expiresAt, err := rs.Iot.Device.RegisterOrRotateDevice(account.ID, req.SerialNumber, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	response := deviceResponse(device)
	response["owner"] = account.Username
	c.JSON(http.StatusOK, gin.H{
		"device":     response,
		"api_key":    secret,
		"expires_at": expiresAt,
	})
}

func (rs *RestfulServer) ListDevices(c *gin.Context) {
	devices, err := rs.Iot.Device.ListDevices(currentAccountID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	results := common.Mapper(devices, func(d models.Device) gin.H {
		response := deviceResponse(&d)
		response["last_seen"] = d.LastSeen
		return response
	})
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
}

func (rs *RestfulServer) DeleteDevice(c *gin.Context) {
	serial := c.Param("serial")
	if err := rs.Iot.Device.DeleteDevice(currentAccountID(c), serial); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "serial_number": serial})
}

func (rs *RestfulServer) ListDeviceKeys(c *gin.Context) {
	accountID := currentAccountID(c)
	device, err := rs.Iot.Device.GetOwnedDevice(accountID, c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}

	keys, err := rs.Iot.Device.ListCredentials(accountID, device.Serial)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_id":     device.ID,
		"serial_number": device.Serial,
		"count":         len(keys),
		"results":       keys,
	})
}

func (rs *RestfulServer) RotateDeviceKey(c *gin.Context) {
	accountID := currentAccountID(c)
	device, err := rs.Iot.Device.GetOwnedDevice(accountID, c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}

	secret, expiresAt, err := rs.Iot.Device.RotateCredential(accountID, device.Serial)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device":     deviceResponse(device),
		"api_key":    secret,
		"expires_at": expiresAt,
	})
}

func (rs *RestfulServer) RevokeDeviceKey(c *gin.Context) {
	accountID := currentAccountID(c)
	keyID, err := strconv.ParseUint(c.Param("key_id"), 10, 64)
	if err != nil {
		writeError(c, iot.NewNotFoundError("Key not found for this device."))
		return
	}

	device, err := rs.Iot.Device.GetOwnedDevice(accountID, c.Param("serial"))
	if err != nil {
		writeError(c, err)
		return
	}

	if err := rs.Iot.Device.RevokeCredential(accountID, device.Serial, uint(keyID)); err != nil {
		writeError(c, err)
		return
	}

	keys, err := rs.Iot.Device.ListCredentials(accountID, device.Serial)
	if err != nil {
		writeError(c, err)
		return
	}
	for _, key := range keys {
		if key.ID == uint(keyID) {
			c.JSON(http.StatusOK, gin.H{
				"device_id":     device.ID,
				"serial_number": device.Serial,
				"key":           key,
			})
			return
		}
	}
	writeError(c, iot.NewNotFoundError("Key not found for this device."))
}
