package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const (
	deleteActionDevice    = "delete_device_data"
	deleteActionDateRange = "delete_date_range"
	deleteActionAll       = "delete_all_data"

	deleteAllConfirmation = "DELETE ALL MY DATA"

	defaultExportWindow = 24 * time.Hour
)

func queryTime(c *gin.Context, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	t, err := iot.ParseQueryTime(value)
	if err != nil {
		return nil, iot.NewMalformedRequestError(fmt.Sprintf("Invalid '%s' datetime", name), name)
	}
	return &t, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	value := c.Query(name)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, iot.NewMalformedRequestError(fmt.Sprintf("Invalid '%s' value", name), name)
	}
	return n, nil
}

func (rs *RestfulServer) QueryTelemetry(c *gin.Context) {
	filter := models.QueryFilter{
		DeviceSerial: c.Query("device_id"),
		Range:        c.Query("range"),
	}

	var err error
	if filter.Start, err = queryTime(c, "start"); err != nil {
		writeError(c, err)
		return
	}
	if filter.End, err = queryTime(c, "end"); err != nil {
		writeError(c, err)
		return
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		writeError(c, err)
		return
	}
	if latest := c.Query("latest"); latest != "" {
		filter.Latest, _ = strconv.ParseBool(latest)
	}

	samples, err := rs.Iot.Telemetry.Query(currentAccountID(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(samples), "results": samples})
}

func (rs *RestfulServer) RecentTelemetry(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}

	serial, samples, err := rs.Iot.Telemetry.Recent(currentAccountID(c), c.Query("device_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(samples), "device_id": serial, "data": samples})
}

func formatLocal(t *time.Time, loc *time.Location) (string, string) {
	if t == nil {
		return "", ""
	}
	return t.UTC().Format(time.RFC3339), t.In(loc).Format("2006-01-02 15:04:05")
}

func optionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// ExportTelemetryCSV streams one device's history, the last day by default.
func (rs *RestfulServer) ExportTelemetryCSV(c *gin.Context) {
	serial := c.Query("device_id")
	if serial == "" {
		writeError(c, iot.NewMalformedRequestError("Missing device_id", "device_id"))
		return
	}

	loc := time.UTC
	if tz := c.Query("tz"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	filter := models.QueryFilter{DeviceSerial: serial}
	var err error
	if filter.Start, err = queryTime(c, "start"); err != nil {
		writeError(c, err)
		return
	}
	if filter.End, err = queryTime(c, "end"); err != nil {
		writeError(c, err)
		return
	}
	if filter.Start == nil && filter.End == nil {
		start := time.Now().UTC().Add(-defaultExportWindow)
		filter.Start = &start
	}

	samples, err := rs.Iot.Telemetry.Query(currentAccountID(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_telemetry.csv"`, serial))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{
		"server_ts_utc", "server_ts_local", "device_ts_utc", "device_ts_local",
		"temp_inside_c", "temp_outside_c", "setpoint_c", "hysteresis_c",
		"humidity_percent", "mode", "output",
	})
	for _, s := range samples {
		serverUTC, serverLocal := formatLocal(&s.ServerTS, loc)
		deviceUTC, deviceLocal := formatLocal(s.DeviceTS, loc)
		output := ""
		if s.Output != nil {
			output = *s.Output
		}
		_ = w.Write([]string{
			serverUTC, serverLocal, deviceUTC, deviceLocal,
			optionalFloat(&s.TempInsideC), optionalFloat(s.TempOutsideC),
			optionalFloat(&s.SetpointC), optionalFloat(s.HysteresisC),
			optionalFloat(s.HumidityPercent), string(s.Mode), output,
		})
	}
	w.Flush()
}

type DeleteTelemetryRequest struct {
	Action           string `json:"action"`
	DeviceSerial     string `json:"device_serial"`
	FromDate         string `json:"from_date"`
	ToDate           string `json:"to_date"`
	ConfirmDeleteAll string `json:"confirm_delete_all"`
}

func dayBounds(from, to string) (*time.Time, *time.Time, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, nil, iot.NewMalformedRequestError("Invalid date format.", "from_date")
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, nil, iot.NewMalformedRequestError("Invalid date format.", "to_date")
	}
	// exclusive, so the whole of the last second is covered
	end = end.AddDate(0, 0, 1)
	return &start, &end, nil
}

func (rs *RestfulServer) DeleteTelemetry(c *gin.Context) {
	var req DeleteTelemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, iot.NewMalformedRequestError("Invalid JSON"))
		return
	}

	var filter models.DeleteFilter
	switch req.Action {
	case deleteActionDevice:
		if req.DeviceSerial == "" {
			writeError(c, iot.NewMalformedRequestError("Field 'device_serial' is required", "device_serial"))
			return
		}
		filter.DeviceSerial = req.DeviceSerial

	case deleteActionDateRange:
		if req.DeviceSerial == "" || req.FromDate == "" || req.ToDate == "" {
			writeError(c, iot.NewMalformedRequestError("Please provide device, from date, and to date.",
				"device_serial", "from_date", "to_date"))
			return
		}
		from, to, err := dayBounds(req.FromDate, req.ToDate)
		if err != nil {
			writeError(c, err)
			return
		}
		filter = models.DeleteFilter{DeviceSerial: req.DeviceSerial, From: from, To: to}

	case deleteActionAll:
		if req.ConfirmDeleteAll != deleteAllConfirmation {
			writeError(c, iot.NewMalformedRequestError(
				fmt.Sprintf("Please type '%s' to confirm deletion.", deleteAllConfirmation), "confirm_delete_all"))
			return
		}
		filter.All = true

	default:
		writeError(c, iot.NewMalformedRequestError("Unknown action", "action"))
		return
	}

	deleted, err := rs.Iot.Telemetry.DeleteSamples(currentAccountID(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": deleted})
}
