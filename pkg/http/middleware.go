package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(headerRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		common.GetLoggerWith(common.LoggerNameRestfulServer).Info("Handled request",
			zap.String("request_id", c.GetString(headerRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// IssueToken signs a session token for the account.
func (rs *RestfulServer) IssueToken(accountID uint) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(rs.SessionTTL)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(accountID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(rs.JWTSecret)
	return signed, expiresAt, err
}

func (rs *RestfulServer) parseToken(raw string) (uint, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return rs.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("token subject is not an account id")
	}
	return uint(id), nil
}

func (rs *RestfulServer) requireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication required"})
			return
		}

		accountID, err := rs.parseToken(strings.TrimSpace(raw))
		if err != nil {
			common.GetLoggerWith(common.LoggerNameRestfulServer).Info("Rejected session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
			return
		}

		c.Set(contextKeyAccountID, accountID)
		c.Next()
	}
}

func currentAccountID(c *gin.Context) uint {
	return c.GetUint(contextKeyAccountID)
}

func accountKey(c *gin.Context) string {
	return "account:" + strconv.FormatUint(uint64(currentAccountID(c)), 10)
}

// writeError maps domain errors onto their response shapes. Anything else
// is logged and reported as a bare 500.
func writeError(c *gin.Context, err error) {
	e, ok := iot.AsError(err)
	if !ok {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Request failed",
			zap.String("request_id", c.GetString(headerRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	switch e.Kind {
	case iot.ErrorKindRateLimited:
		c.JSON(e.HTTPStatus(), gin.H{"error": string(iot.ErrorKindRateLimited), "message": e.Message})
	case iot.ErrorKindStorageLimitExceeded:
		c.JSON(e.HTTPStatus(), gin.H{"status": "error", "code": "STORAGE_LIMIT_EXCEEDED", "message": e.Message})
	default:
		body := gin.H{"detail": e.Message}
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
		c.JSON(e.HTTPStatus(), body)
	}
}
