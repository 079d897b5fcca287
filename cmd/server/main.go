package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/db"
	iotGrpc "liyu1981.xyz/device-telemetry-service/pkg/grpc"
	iotHttp "liyu1981.xyz/device-telemetry-service/pkg/http"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
	"liyu1981.xyz/device-telemetry-service/pkg/mail"
)

const limiterPruneInterval = 10 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal("Error loading .env file: ", err)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger := common.GetLogger()

	dbInstance := db.GetInstance(db.UseDialector(cfg.DB))

	policies, err := iot.ParsePolicies(
		cfg.RateLimit.Login,
		cfg.RateLimit.Register,
		cfg.RateLimit.DeviceRegister,
		cfg.RateLimit.Telemetry,
		cfg.RateLimit.KeyRotation,
	)
	if err != nil {
		log.Fatal("Invalid rate limit policy: ", err)
	}

	if cfg.Credential.Pepper == "" {
		logger.Warn("No credential pepper configured, device keys are hashed with an empty key")
	}

	jwtSecret := cfg.Session.JWTSecret
	if jwtSecret == "" {
		// sessions will not survive a restart
		jwtSecret = uuid.NewString() + uuid.NewString()
		logger.Warn("No JWT secret configured, using a random one for this process")
	}

	iotCore := iot.New(dbInstance, iot.Options{
		Pepper:        cfg.Credential.Pepper,
		CredentialTTL: cfg.Credential.TTL,
		Policies:      policies,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var limiter iot.RateLimiter
	if cfg.RateLimit.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		defer client.Close()
		limiter = iot.NewRedisRateLimiter(client)
		logger.Info("Using redis rate limiter", zap.String("addr", cfg.RateLimit.RedisAddr))
	} else {
		store := iot.NewRateLimiterStore()
		limiter = store
		go func() {
			ticker := time.NewTicker(limiterPruneInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := store.Prune(limiterPruneInterval); n > 0 {
						logger.Debug("Pruned idle rate limiters", zap.Int("pruned", n))
					}
				}
			}
		}()
	}

	var mailer iot.Mailer = mail.LogMailer{}
	if cfg.SMTP.Host != "" {
		smtpMailer, err := mail.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			log.Fatal("Invalid SMTP configuration: ", err)
		}
		mailer = smtpMailer
	}

	queue := iot.NewAlertQueue(iotCore.Alert, cfg.Alert.Workers, cfg.Alert.QueueSize)
	iotCore.WithServices(iot.ServiceOpts{
		Limiter:    limiter,
		Mailer:     mailer,
		AlertQueue: queue,
	})
	queue.Start(context.WithoutCancel(ctx))
	defer queue.Close()

	if cfg.Storage.RecomputeInterval > 0 {
		iot.NewStorageRecomputer(iotCore, cfg.Storage.RecomputeInterval).Start(ctx)
	}

	var wg sync.WaitGroup

	if cfg.Server.GRPCHostPort != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			grpcServer := iotGrpc.IOTServer{Iot: iotCore}
			if err := grpcServer.ListenAndServe(ctx, cfg.Server.GRPCHostPort); err != nil {
				logger.Error("gRPC server failed", zap.Error(err))
				stop()
			}
		}()
	}

	rs := &iotHttp.RestfulServer{
		Server:     gin.Default(),
		Iot:        iotCore,
		Limiter:    limiter,
		JWTSecret:  []byte(jwtSecret),
		SessionTTL: cfg.Session.TTL,
	}
	rs.Setup()

	logger.Info("Starting HTTP server on: " + cfg.Server.HTTPHostPort)
	if err := rs.ListenAndServe(ctx, cfg.Server.HTTPHostPort); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
		stop()
	}

	wg.Wait()
	logger.Info("Server stopped")
}
