package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "liyu1981.xyz/device-telemetry-service/pkg/testing"

	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/db"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
	"liyu1981.xyz/device-telemetry-service/pkg/mail"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

func setupTestServer() *RestfulServer {
	iotObj := iot.New(db.GetInstance(db.UseMemorySqliteDialector()), iot.Options{Pepper: "test-pepper"})
	iotObj.WithServices(iot.ServiceOpts{Mailer: mail.LogMailer{}})

	rs := &RestfulServer{
		Server:     gin.Default(),
		Iot:        iotObj,
		JWTSecret:  []byte("test-jwt-secret"),
		SessionTTL: time.Hour,
		// no limiter by default, tests that need one assign rs.Limiter
	}

	rs.Setup()

	return rs
}

type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func do(rs *RestfulServer, r request) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := r.body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(r.method, r.path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	rs.Server.ServeHTTP(w, req)
	return w
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// signup registers a fresh account and returns its session token.
func signup(t *testing.T, rs *RestfulServer) string {
	t.Helper()

	username := uuid.NewString()
	w := do(rs, request{method: "POST", path: "/api/auth/register", body: gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct horse",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(rs, request{method: "POST", path: "/api/auth/login", body: gin.H{
		"username": username,
		"password": "correct horse",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

func registerDevice(t *testing.T, rs *RestfulServer, token string) (string, string) {
	t.Helper()

	serial := "SN-" + uuid.NewString()[:18]
	w := do(rs, request{method: "POST", path: "/api/devices/register", headers: bearer(token), body: gin.H{
		"serial_number": serial,
		"name":          "Living Room",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return serial, decode(t, w)["api_key"].(string)
}

func ingest(rs *RestfulServer, serial, apiKey string, body any) *httptest.ResponseRecorder {
	return do(rs, request{
		method:  "POST",
		path:    "/api/telemetry/ingest",
		body:    body,
		headers: map[string]string{"Authorization": fmt.Sprintf("Device %s:%s", serial, apiKey)},
	})
}

var validSample = gin.H{"mode": "HEAT", "setpoint_c": 21.5, "temp_inside_c": 20.25}

func TestHealthCheck(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	w := do(rs, request{method: "GET", path: "/healthz"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	w = do(rs, request{method: "GET", path: "/api/ping", headers: map[string]string{headerRequestID: "req-1"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","message":"api app wired"}`, w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(headerRequestID))
}

func TestAccountFlow(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	username := uuid.NewString()
	body := gin.H{"username": username, "email": "a@example.com", "password": "correct horse"}

	w := do(rs, request{method: "POST", path: "/api/auth/register", body: body})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, username, decode(t, w)["username"])

	w = do(rs, request{method: "POST", path: "/api/auth/register", body: body})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already taken", decode(t, w)["detail"])

	w = do(rs, request{method: "POST", path: "/api/auth/register", body: gin.H{"username": uuid.NewString()}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"password"}, decode(t, w)["fields"])

	w = do(rs, request{method: "POST", path: "/api/auth/login", body: gin.H{"username": username, "password": "nope nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Invalid credentials"}`, w.Body.String())

	w = do(rs, request{method: "POST", path: "/api/auth/login", body: gin.H{"username": username, "password": "correct horse"}})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	w = do(rs, request{method: "GET", path: "/api/auth/me", headers: bearer(token)})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, username, decode(t, w)["username"])

	w = do(rs, request{method: "GET", path: "/api/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(rs, request{method: "GET", path: "/api/auth/me", headers: bearer(token + "x")})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := &RestfulServer{JWTSecret: []byte("other-secret"), SessionTTL: time.Hour}
	forged, _, err := other.IssueToken(1)
	require.NoError(t, err)
	w = do(rs, request{method: "GET", path: "/api/devices", headers: bearer(forged)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDeviceAndIngest(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	token := signup(t, rs)
	serial, apiKey := registerDevice(t, rs, token)

	w := ingest(rs, serial, apiKey, gin.H{
		"mode": "heat", "setpoint_c": 21.5, "temp_inside_c": 20.25,
		"temp_outside_c": nil, "output": "ON", "timestamp": "2025-11-21T06:30:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)
	assert.Equal(t, "ok", result["status"])
	assert.NotZero(t, result["id"])

	w = do(rs, request{method: "GET", path: "/api/telemetry?latest=true&device_id=" + serial, headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	query := decode(t, w)
	assert.Equal(t, float64(1), query["count"])
	sample := query["results"].([]any)[0].(map[string]any)
	assert.Equal(t, serial, sample["device_id"])
	assert.Equal(t, "HEAT", sample["mode"])
	assert.Nil(t, sample["temp_outside_c"])
	assert.Equal(t, "ON", sample["output"])
	assert.Equal(t, "ON", sample["raw_payload"].(map[string]any)["output"])

	w = do(rs, request{method: "GET", path: "/api/telemetry/recent", headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	recent := decode(t, w)
	assert.Equal(t, serial, recent["device_id"])
	assert.Len(t, recent["data"], 1)

	w = do(rs, request{method: "GET", path: "/api/devices", headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	devices := decode(t, w)
	assert.Equal(t, float64(1), devices["count"])
	assert.NotNil(t, devices["results"].([]any)[0].(map[string]any)["last_seen"])

	w = do(rs, request{method: "GET", path: "/api/telemetry?range=abc", headers: bearer(token)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid 'range' format, use like '24h' or '7d'", decode(t, w)["detail"])

	w = do(rs, request{method: "GET", path: "/api/telemetry?start=yesterday", headers: bearer(token)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stranger := signup(t, rs)
	w = do(rs, request{method: "GET", path: "/api/telemetry?device_id=" + serial, headers: bearer(stranger)})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Device not found or not owned"}`, w.Body.String())

	w = do(rs, request{method: "POST", path: "/api/devices/register", headers: bearer(stranger), body: gin.H{"serial_number": serial}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "This device serial is already registered to another user.", decode(t, w)["detail"])

	w = do(rs, request{method: "POST", path: "/api/devices/register", headers: bearer(token), body: gin.H{"name": "No serial"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestErrors(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	token := signup(t, rs)
	serial, apiKey := registerDevice(t, rs, token)

	w := do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: validSample})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Missing or invalid Authorization header"}`, w.Body.String())

	w = do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: validSample,
		headers: map[string]string{"Authorization": "Token abc"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: validSample,
		headers: map[string]string{"Authorization": "Device " + serial}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Invalid device credentials format"}`, w.Body.String())

	wrong := ingest(rs, serial, "not-the-key", validSample)
	unknown := ingest(rs, "SN-UNKNOWN-"+uuid.NewString(), apiKey, validSample)
	assert.Equal(t, http.StatusForbidden, wrong.Code)
	assert.Equal(t, http.StatusForbidden, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	w = ingest(rs, serial, apiKey, gin.H{"mode": "HEAT"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Missing required fields: setpoint_c, temp_inside_c","fields":["setpoint_c","temp_inside_c"]}`, w.Body.String())

	w = ingest(rs, serial, apiKey, `{"mode":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ingest(rs, serial, apiKey, strings.Repeat(" ", iot.DefaultMaxBodyBytes+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"detail":"Request body too large"}`, w.Body.String())
}

func TestIngestStorageLimit(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()
	rs.Iot.Options.PlanLimits = map[models.StoragePlan]int64{models.StoragePlanFree: 500}

	token := signup(t, rs)
	serial, apiKey := registerDevice(t, rs, token)

	w := ingest(rs, serial, apiKey, validSample)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ingest(rs, serial, apiKey, validSample)
	assert.Equal(t, http.StatusInsufficientStorage, w.Code)
	assert.JSONEq(t, `{
		"status": "error",
		"code": "STORAGE_LIMIT_EXCEEDED",
		"message": "Storage limit reached (500 bytes). Please delete old telemetry data or upgrade your plan."
	}`, w.Body.String())

	w = do(rs, request{method: "GET", path: "/api/storage", headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	assert.Equal(t, "free", summary["plan"])
	assert.Equal(t, float64(1), summary["device_count"])
	assert.Equal(t, float64(1), summary["sample_count"])

	w = do(rs, request{method: "POST", path: "/api/storage/recompute", headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode(t, w)["last_calculated_at"])
}

func TestRateLimits(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()
	store := iot.NewRateLimiterStore()
	rs.Limiter = store

	username := uuid.NewString()
	for range 5 {
		w := do(rs, request{method: "POST", path: "/api/auth/login", body: gin.H{"username": username, "password": "whatever1"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := do(rs, request{method: "POST", path: "/api/auth/login", body: gin.H{"username": username, "password": "whatever1"}})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate_limit_exceeded","message":"Too many requests. Please try again later."}`, w.Body.String())
}

func TestIngestRateLimit(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	token := signup(t, rs)
	serial, apiKey := registerDevice(t, rs, token)

	rs.Iot.WithServices(iot.ServiceOpts{Limiter: iot.NewRateLimiterStore()})
	rs.Iot.Options.Policies.Telemetry = models.RatePolicy{Name: "telemetry", Capacity: 2, Window: time.Minute}

	headers := map[string]string{
		"Authorization": fmt.Sprintf("Device %s:%s", serial, apiKey),
		headerDeviceKey: uuid.NewString(),
	}
	for range 2 {
		w := do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: validSample, headers: headers})
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: validSample, headers: headers})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// a different device key has its own budget
	headers[headerDeviceKey] = uuid.NewString()
	w = do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: validSample, headers: headers})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOversizedBodyChecksLimiterAndAuthFirst(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	token := signup(t, rs)
	serial, apiKey := registerDevice(t, rs, token)
	oversized := strings.Repeat(" ", iot.DefaultMaxBodyBytes+1)

	w := ingest(rs, serial, "wrong-key", oversized)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: oversized})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	rs.Iot.WithServices(iot.ServiceOpts{Limiter: iot.NewRateLimiterStore()})
	rs.Iot.Options.Policies.Telemetry = models.RatePolicy{Name: "telemetry", Capacity: 1, Window: time.Minute}
	headers := map[string]string{
		"Authorization": fmt.Sprintf("Device %s:%s", serial, apiKey),
		headerDeviceKey: uuid.NewString(),
	}

	w = do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: oversized, headers: headers})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	w = do(rs, request{method: "POST", path: "/api/telemetry/ingest", body: oversized, headers: headers})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestDeviceKeys(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	token := signup(t, rs)
	serial, oldKey := registerDevice(t, rs, token)
	base := "/api/devices/" + serial + "/keys"

	w := do(rs, request{method: "POST", path: base + "/rotate", headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	newKey := decode(t, w)["api_key"].(string)
	assert.NotEqual(t, oldKey, newKey)

	assert.Equal(t, http.StatusForbidden, ingest(rs, serial, oldKey, validSample).Code)
	assert.Equal(t, http.StatusOK, ingest(rs, serial, newKey, validSample).Code)

	w = do(rs, request{method: "GET", path: base, headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	keys := decode(t, w)
	assert.Equal(t, float64(2), keys["count"])
	active := keys["results"].([]any)[0].(map[string]any)
	assert.Equal(t, true, active["is_active"])
	activeID := uint(active["id"].(float64))

	w = do(rs, request{method: "POST", path: fmt.Sprintf("%s/%d/revoke", base, activeID), headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["key"].(map[string]any)["is_active"])
	assert.Equal(t, http.StatusForbidden, ingest(rs, serial, newKey, validSample).Code)

	w = do(rs, request{method: "POST", path: base + "/999999999/revoke", headers: bearer(token)})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Key not found for this device."}`, w.Body.String())

	stranger := signup(t, rs)
	w = do(rs, request{method: "POST", path: base + "/rotate", headers: bearer(stranger)})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertEndpoints(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	token := signup(t, rs)
	serial, _ := registerDevice(t, rs, token)
	path := "/api/devices/" + serial + "/alerts"

	w := do(rs, request{method: "GET", path: path + "/config", headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	config := decode(t, w)
	assert.Equal(t, false, config["enabled"])
	assert.Equal(t, float64(30), config["cooldown_minutes"])

	w = do(rs, request{method: "PUT", path: path + "/config", headers: bearer(token), body: gin.H{
		"enabled":          true,
		"high_threshold_c": 28.5,
		"recipient_email":  "ops@example.com",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	config = decode(t, w)
	assert.Equal(t, true, config["enabled"])
	assert.Equal(t, 28.5, config["high_threshold_c"])
	assert.Equal(t, "ops@example.com", config["recipient_email"])

	w = do(rs, request{method: "PUT", path: path + "/config", headers: bearer(token), body: gin.H{"recipient_email": "not-an-email"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(rs, request{method: "PUT", path: path + "/config", headers: bearer(token), body: gin.H{"cooldown_minutes": -5}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(rs, request{method: "GET", path: path, headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestDeleteTelemetryAndDevice(t *testing.T) {
	common.SetTestLoggerNop()
	rs := setupTestServer()

	token := signup(t, rs)
	serial, apiKey := registerDevice(t, rs, token)
	for range 3 {
		require.Equal(t, http.StatusOK, ingest(rs, serial, apiKey, validSample).Code)
	}

	w := do(rs, request{method: "POST", path: "/api/telemetry/delete", headers: bearer(token), body: gin.H{"action": "delete_all_data"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please type 'DELETE ALL MY DATA' to confirm deletion.", decode(t, w)["detail"])

	w = do(rs, request{method: "POST", path: "/api/telemetry/delete", headers: bearer(token), body: gin.H{"action": "explode"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	today := time.Now().UTC().Format("2006-01-02")
	w = do(rs, request{method: "POST", path: "/api/telemetry/delete", headers: bearer(token), body: gin.H{
		"action": "delete_date_range", "device_serial": serial, "from_date": "2000-01-01", "to_date": "2000-01-02",
	}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["deleted"])

	w = do(rs, request{method: "GET", path: "/api/telemetry/export?device_id=" + serial + "&tz=Europe/Berlin", headers: bearer(token)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "server_ts_utc,server_ts_local,device_ts_utc"))

	w = do(rs, request{method: "POST", path: "/api/telemetry/delete", headers: bearer(token), body: gin.H{
		"action": "delete_date_range", "device_serial": serial, "from_date": today, "to_date": today,
	}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["deleted"])

	w = do(rs, request{method: "DELETE", path: "/api/devices/" + serial, headers: bearer(signup(t, rs))})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(rs, request{method: "DELETE", path: "/api/devices/" + serial, headers: bearer(token)})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusForbidden, ingest(rs, serial, apiKey, validSample).Code)

	w = do(rs, request{method: "POST", path: "/api/telemetry/delete", headers: bearer(token), body: gin.H{
		"action": "delete_all_data", "confirm_delete_all": "DELETE ALL MY DATA",
	}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["deleted"])
}

func TestDayBoundsEndAtNextMidnight(t *testing.T) {
	from, to, err := dayBounds("2025-11-21", "2025-11-22")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2025, 11, 23, 0, 0, 0, 0, time.UTC), *to)

	_, _, err = dayBounds("2025-11-21", "22/11/2025")
	e, ok := iot.AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"to_date"}, e.Fields)
}
