package db

import (
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

func GetInstance(dialector gorm.Dialector) *DB {
	var logger = common.GetLogger()
	once.Do(func() {
		conn, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger()})
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

		instance = &DB{Conn: conn}

		if dialector.Name() == "sqlite" {
			if err := instance.Conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
				log.Fatal("Failed to enable sqlite foreign key support", err)
			}

			if err := instance.Conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
				log.Fatal("Failed to set sqlite journal mode", err)
			}
		}

		err = instance.Conn.AutoMigrate(
			&models.Account{},
			&models.StorageProfile{},
			&models.Device{},
			&models.ApiCredential{},
			&models.AlertConfig{},
			&models.AlertEvent{},
			&models.TelemetrySample{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		logger.Info("Database migration completed")
	})
	return instance
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(common.EnvKeyIOTDbPath); !found {
		dbPath = "telemetry.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

// UsePostgresDialector opens IOT_DB_URL, a libpq style DSN or postgres:// url.
func UsePostgresDialector() gorm.Dialector {
	dsn, found := os.LookupEnv(common.EnvKeyIOTDbURL)
	if !found || dsn == "" {
		log.Fatalf("%s must be set for the postgres dialector", common.EnvKeyIOTDbURL)
	}
	return postgres.Open(dsn)
}

func UseDialector(cfg common.DBConfig) gorm.Dialector {
	switch cfg.Type {
	case "memory":
		return UseMemorySqliteDialector()
	case "postgres":
		return postgres.Open(cfg.URL)
	default:
		if cfg.Path != "" {
			return sqlite.Open(cfg.Path)
		}
		return UseSqliteDialector()
	}
}
