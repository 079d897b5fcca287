package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (rs *RestfulServer) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "api app wired"})
}

func (rs *RestfulServer) IngestTelemetry(c *gin.Context) {
	// one byte past the cap is enough for the pipeline to reject it
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(rs.Iot.Options.MaxBodyBytes)+1))
	if err != nil {
		writeError(c, iot.NewMalformedRequestError("Could not read request body"))
		return
	}

	result, err := rs.Iot.Telemetry.Ingest(c.Request.Context(), models.IngestRequest{
		Header:     c.GetHeader("Authorization"),
		Body:       body,
		RateKey:    deviceRateKey(c),
		RemoteAddr: c.ClientIP(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"id":        result.ID,
		"server_ts": result.ServerTS,
	})
}

// snakeCase turns a schema key like "SerialNumber" into its JSON name.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// bindAndValidate decodes the JSON body into req and runs schema over it.
func bindAndValidate(c *gin.Context, schema *z.StructSchema, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, iot.NewMalformedRequestError("Invalid JSON"))
		return false
	}

	if issues := schema.Validate(req); len(issues) > 0 {
		var fields []string
		for field := range issues {
			if field == "$root" || field == "$first" {
				continue
			}
			fields = append(fields, snakeCase(field))
		}
		sort.Strings(fields)
		writeError(c, iot.NewMalformedRequestError(fmt.Sprintf("Invalid fields: %s", strings.Join(fields, ", ")), fields...))
		return false
	}
	return true
}
