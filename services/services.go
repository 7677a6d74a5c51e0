package services

import (
	"strings"
	"time"

	"contesthub/config"
	"contesthub/payments"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Settings are the tunables the services read from configuration
type Settings struct {
	MinEntryFee  decimal.Decimal
	PopularLimit int
	CacheTTL     time.Duration
	Currency     string
	ClientURL    string
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		MinEntryFee:  cfg.MinEntryFee,
		PopularLimit: cfg.PopularLimit,
		CacheTTL:     cfg.CacheTTL,
		Currency:     cfg.PaymentCurrency,
		ClientURL:    strings.TrimRight(cfg.ClientURL, "/"),
	}
}

// Deps are the collaborators shared by every service
type Deps struct {
	DB       *gorm.DB
	Cache    Cache
	Notifier Notifier
	Payments payments.Provider
	Log      logrus.FieldLogger
	Now      func() time.Time
	Settings Settings
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = NopCache()
	}
	if d.Notifier == nil {
		d.Notifier = NopNotifier()
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Settings.MinEntryFee.IsZero() {
		d.Settings.MinEntryFee = decimal.NewFromInt(100)
	}
	if d.Settings.PopularLimit <= 0 {
		d.Settings.PopularLimit = 5
	}
	if d.Settings.CacheTTL <= 0 {
		d.Settings.CacheTTL = 30 * time.Second
	}
	if d.Settings.Currency == "" {
		d.Settings.Currency = "bdt"
	}
	return d
}

// Services bundles every service built from one set of dependencies
type Services struct {
	Access        *AccessService
	Contests      *ContestService
	Registrations *RegistrationService
	Submissions   *SubmissionService
	Queries       *QueryService
	Users         *UserService
	Reconciler    *Reconciler
}

func New(d Deps) *Services {
	d = d.withDefaults()
	access := NewAccessService(d.DB)
	return &Services{
		Access:        access,
		Contests:      NewContestService(d, access),
		Registrations: NewRegistrationService(d),
		Submissions:   NewSubmissionService(d),
		Queries:       NewQueryService(d),
		Users:         NewUserService(d, access),
		Reconciler:    NewReconciler(d),
	}
}

// normalizeEmail makes emails comparable across tables
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
