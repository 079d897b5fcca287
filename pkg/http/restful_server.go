package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const (
	headerRequestID = "X-Request-ID"
	headerDeviceKey = "X-Device-Key"

	contextKeyAccountID = "account_id"
)

type RestfulServer struct {
	Server *gin.Engine
	Iot    *iot.IOT
	// Limiter guards the account and key management routes. Telemetry is
	// limited inside the ingestion pipeline.
	Limiter    iot.RateLimiter
	JWTSecret  []byte
	SessionTTL time.Duration
}

// allow consults the limiter, failing open when it is unavailable.
func (rs *RestfulServer) allow(c *gin.Context, key string, policy models.RatePolicy) bool {
	if rs.Limiter == nil {
		return true
	}

	allowed, err := rs.Limiter.Allow(c.Request.Context(), key, policy)
	if err != nil {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Warn("Rate limiter unavailable, allowing request",
			zap.String("policy", policy.Name),
			zap.Error(err),
		)
		return true
	}
	return allowed
}

// rateLimit rejects the request with 429 once key exhausts policy.
func (rs *RestfulServer) rateLimit(policy func() models.RatePolicy, key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rs.allow(c, key(c), policy()) {
			writeError(c, &iot.Error{Kind: iot.ErrorKindRateLimited, Message: iot.MessageRateLimited})
			c.Abort()
			return
		}
		c.Next()
	}
}

// deviceRateKey prefers the key a device announces for itself, then the
// client address.
func deviceRateKey(c *gin.Context) string {
	if key := c.GetHeader(headerDeviceKey); key != "" {
		return key
	}
	if key := c.Query("device_key"); key != "" {
		return key
	}
	return c.ClientIP()
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

func (rs *RestfulServer) policies() iot.Policies {
	return rs.Iot.Options.Policies
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(requestID(), requestLogger())
	rs.Server.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Authorization", "Content-Type", headerDeviceKey, headerRequestID},
		ExposeHeaders:   []string{headerRequestID},
		MaxAge:          12 * time.Hour,
	}))

	rs.Server.GET("/healthz", rs.HealthCheck)

	api := rs.Server.Group("/api")
	{
		api.GET("/ping", rs.Ping)
		api.POST("/telemetry/ingest", rs.IngestTelemetry)

		auth := api.Group("/auth")
		{
			auth.POST("/register",
				rs.rateLimit(func() models.RatePolicy { return rs.policies().Register }, clientIPKey),
				rs.RegisterAccount)
			auth.POST("/login",
				rs.rateLimit(func() models.RatePolicy { return rs.policies().Login }, clientIPKey),
				rs.Login)
		}

		owner := api.Group("", rs.requireAccount())
		{
			owner.GET("/auth/me", rs.Me)

			owner.GET("/devices", rs.ListDevices)
			owner.POST("/devices/register",
				rs.rateLimit(func() models.RatePolicy { return rs.policies().DeviceRegister }, accountKey),
				rs.RegisterDevice)
			owner.DELETE("/devices/:serial", rs.DeleteDevice)

			keyRotation := rs.rateLimit(func() models.RatePolicy { return rs.policies().KeyRotation }, deviceRateKey)
			owner.GET("/devices/:serial/keys", rs.ListDeviceKeys)
			owner.POST("/devices/:serial/keys/rotate", keyRotation, rs.RotateDeviceKey)
			owner.POST("/devices/:serial/keys/:key_id/revoke", keyRotation, rs.RevokeDeviceKey)

			owner.GET("/devices/:serial/alerts", rs.GetAlerts)
			owner.GET("/devices/:serial/alerts/config", rs.GetAlertConfig)
			owner.PUT("/devices/:serial/alerts/config", rs.UpdateAlertConfig)

			owner.GET("/telemetry", rs.QueryTelemetry)
			owner.GET("/telemetry/recent", rs.RecentTelemetry)
			owner.GET("/telemetry/export", rs.ExportTelemetryCSV)
			owner.POST("/telemetry/delete", rs.DeleteTelemetry)

			owner.GET("/storage", rs.GetStorage)
			owner.POST("/storage/recompute", rs.RecomputeStorage)
		}
	}
}

// ListenAndServe runs the engine until ctx is cancelled, then drains
// in-flight requests.
func (rs *RestfulServer) ListenAndServe(ctx context.Context, addr string) error {
	logger := common.GetLoggerWith(common.LoggerNameRestfulServer)

	srv := &http.Server{
		Addr:              addr,
		Handler:           rs.Server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("RESTful server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("RESTful server shutting down")
	return srv.Shutdown(shutdownCtx)
}
