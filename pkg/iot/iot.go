package iot

//go:generate mockgen -source=iot.go -destination=mocks/iot_mock.go -package=mocks

import (
	"context"
	"time"

	"liyu1981.xyz/device-telemetry-service/pkg/db"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

type ICredential interface {
	Create(device *models.Device, ttl time.Duration) (*models.ApiCredential, string, error)
	Rotate(device *models.Device, ttl time.Duration) (*models.ApiCredential, string, error)
	Revoke(credential *models.ApiCredential) error
	List(deviceID uint) ([]models.ApiCredential, error)
	Hash(secret string) string
	IsValid(credential *models.ApiCredential, now time.Time) bool
}

type IAuth interface {
	Authenticate(header string) (*models.Device, error)
}

type IStorage interface {
	GetProfile(accountID uint) (*models.StorageProfile, error)
	Limit(plan models.StoragePlan) int64
	IsFull(profile *models.StorageProfile) bool
	HasRoomFor(profile *models.StorageProfile, size int64) bool
	RecordIngestedBytes(profile *models.StorageProfile, size int64) error
	Recompute(profile *models.StorageProfile) (int64, error)
	Summary(accountID uint) (*models.StorageSummary, error)
}

type IAlert interface {
	CheckSample(ctx context.Context, device *models.Device, measuredC float64, now time.Time) []models.AlertDirection
	Evaluate(ctx context.Context, device *models.Device, config *models.AlertConfig, measuredC float64, now time.Time) []models.AlertDirection
	GetAlertConfig(deviceID uint) (*models.AlertConfig, error)
	UpsertAlertConfig(deviceID uint, input models.AlertConfigInput) (*models.AlertConfig, error)
	GetDeviceAlerts(serial string, limit int) ([]models.AlertEvent, error)
}

type ITelemetry interface {
	Ingest(ctx context.Context, req models.IngestRequest) (*models.IngestResult, error)
	Query(ownerID uint, filter models.QueryFilter) ([]models.TelemetrySample, error)
	Recent(ownerID uint, serial string, limit int) (string, []models.TelemetrySample, error)
	DeleteSamples(ownerID uint, filter models.DeleteFilter) (int64, error)
}

type IDevice interface {
	RegisterOrRotateDevice(ownerID uint, serial, name string) (*models.Device, string, time.Time, error)
	ListDevices(ownerID uint) ([]models.Device, error)
	GetOwnedDevice(ownerID uint, serial string) (*models.Device, error)
	DeleteDevice(ownerID uint, serial string) error
	ListCredentials(ownerID uint, serial string) ([]models.CredentialInfo, error)
	RotateCredential(ownerID uint, serial string) (string, time.Time, error)
	RevokeCredential(ownerID uint, serial string, credentialID uint) error
}

type IAccount interface {
	Register(username, email, password string) (*models.Account, error)
	Login(username, password string) (*models.Account, error)
	GetAccount(id uint) (*models.Account, error)
}

// Mailer sends one plain text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Options struct {
	// Pepper keys the credential digest. Changing it invalidates every credential.
	Pepper        string
	CredentialTTL time.Duration

	PlanLimits         map[models.StoragePlan]int64
	EstimateSampleSize func(payload map[string]any) int64

	Policies Policies

	// MaxBodyBytes caps an ingest body. It is enforced after authentication.
	MaxBodyBytes int

	Now func() time.Time
}

type IOT struct {
	Db      db.DB
	Options Options

	Credential ICredential
	Auth       IAuth
	Storage    IStorage
	Alert      IAlert
	Telemetry  ITelemetry
	Device     IDevice
	Account    IAccount

	Limiter    RateLimiter
	Mailer     Mailer
	AlertQueue *AlertQueue
	Samples    SampleReader
}

type ServiceOpts struct {
	Credential ICredential
	Auth       IAuth
	Storage    IStorage
	Alert      IAlert
	Telemetry  ITelemetry
	Device     IDevice
	Account    IAccount

	Limiter    RateLimiter
	Mailer     Mailer
	AlertQueue *AlertQueue
	Samples    SampleReader
}

const DefaultMaxBodyBytes = 64 << 10

func DefaultOptions() Options {
	return Options{
		CredentialTTL: 365 * 24 * time.Hour,
		PlanLimits: map[models.StoragePlan]int64{
			models.StoragePlanFree:     2 * 1024 * 1024 * 1024,
			models.StoragePlanStandard: 10 * 1024 * 1024 * 1024,
			models.StoragePlanPremium:  1024 * 1024 * 1024 * 1024,
		},
		EstimateSampleSize: EstimateSampleSize,
		Policies:           DefaultPolicies(),
		MaxBodyBytes:       DefaultMaxBodyBytes,
		Now:                time.Now,
	}
}

// New builds an IOT with the default service implementations. Unset options
// fall back to DefaultOptions.
func New(database *db.DB, opts Options) *IOT {
	defaults := DefaultOptions()
	if opts.CredentialTTL <= 0 {
		opts.CredentialTTL = defaults.CredentialTTL
	}
	if opts.PlanLimits == nil {
		opts.PlanLimits = defaults.PlanLimits
	}
	if opts.EstimateSampleSize == nil {
		opts.EstimateSampleSize = defaults.EstimateSampleSize
	}
	if opts.Policies == (Policies{}) {
		opts.Policies = defaults.Policies
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	i := &IOT{Db: *database, Options: opts}
	return i.WithServices(ServiceOpts{
		Credential: i.GetICredential(),
		Auth:       i.GetIAuth(),
		Storage:    i.GetIStorage(),
		Alert:      i.GetIAlert(),
		Telemetry:  i.GetITelemetry(),
		Device:     i.GetIDevice(),
		Account:    i.GetIAccount(),
	})
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Credential != nil {
		i.Credential = opts.Credential
	}
	if opts.Auth != nil {
		i.Auth = opts.Auth
	}
	if opts.Storage != nil {
		i.Storage = opts.Storage
	}
	if opts.Alert != nil {
		i.Alert = opts.Alert
	}
	if opts.Telemetry != nil {
		i.Telemetry = opts.Telemetry
	}
	if opts.Device != nil {
		i.Device = opts.Device
	}
	if opts.Account != nil {
		i.Account = opts.Account
	}
	if opts.Limiter != nil {
		i.Limiter = opts.Limiter
	}
	if opts.Mailer != nil {
		i.Mailer = opts.Mailer
	}
	if opts.AlertQueue != nil {
		i.AlertQueue = opts.AlertQueue
	}
	if opts.Samples != nil {
		i.Samples = opts.Samples
	}
	return i
}

func (i *IOT) now() time.Time {
	if i.Options.Now == nil {
		return time.Now().UTC()
	}
	return i.Options.Now().UTC()
}
