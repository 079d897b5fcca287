package db

import (
	"time"

	"gorm.io/gorm/logger"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
)

const slowQueryThreshold = 200 * time.Millisecond

// zapWriter routes gorm's printf style output into the process logger.
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...any) {
	common.GetLoggerWith(common.LoggerNameDB).Sugar().Warnf(format, args...)
}

// newGormLogger reports slow queries and errors. Lookups that find nothing
// are normal control flow and stay quiet.
func newGormLogger() logger.Interface {
	return logger.New(zapWriter{}, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
