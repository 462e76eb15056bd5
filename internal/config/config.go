package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Intake IntakeConfig `yaml:"intake" mapstructure:"intake"`
	Trust  TrustConfig  `yaml:"trust" mapstructure:"trust"`
	Verify VerifyConfig `yaml:"verify" mapstructure:"verify"`
	Sweep  SweepConfig  `yaml:"sweep" mapstructure:"sweep"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the intake HTTP server.
type ServerConfig struct {
	Port          int     `yaml:"port" mapstructure:"port"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// IntakeConfig configures static submission validation.
type IntakeConfig struct {
	MinPrice          float64  `yaml:"min_price" mapstructure:"min_price"`
	MaxPrice          float64  `yaml:"max_price" mapstructure:"max_price"`
	MinProductNameLen int      `yaml:"min_product_name_len" mapstructure:"min_product_name_len"`
	Markets           []string `yaml:"markets" mapstructure:"markets"`
	PriceBandsPath    string   `yaml:"price_bands_path" mapstructure:"price_bands_path"`
}

// TrustConfig holds the trust score factor weights and thresholds.
// Weights must sum to 1.0; the trust engine checks this at construction.
type TrustConfig struct {
	VerificationRateWeight float64 `yaml:"verification_rate_weight" mapstructure:"verification_rate_weight"`
	AccuracyWeight         float64 `yaml:"accuracy_weight" mapstructure:"accuracy_weight"`
	ReceiptRateWeight      float64 `yaml:"receipt_rate_weight" mapstructure:"receipt_rate_weight"`
	ConsistencyWeight      float64 `yaml:"consistency_weight" mapstructure:"consistency_weight"`
	ActivityWeight         float64 `yaml:"activity_weight" mapstructure:"activity_weight"`
	PenaltyWeight          float64 `yaml:"penalty_weight" mapstructure:"penalty_weight"`

	InitialScore float64 `yaml:"initial_score" mapstructure:"initial_score"`
	MinScore     float64 `yaml:"min_score" mapstructure:"min_score"`
	MaxScore     float64 `yaml:"max_score" mapstructure:"max_score"`

	MinSubmissions       int     `yaml:"min_submissions" mapstructure:"min_submissions"`
	SuspiciousDailyRate  float64 `yaml:"suspicious_daily_rate" mapstructure:"suspicious_daily_rate"`
	HighRejectionRate    float64 `yaml:"high_rejection_rate" mapstructure:"high_rejection_rate"`
	SpamWindowHours      int     `yaml:"spam_window_hours" mapstructure:"spam_window_hours"`
	DuplicateShare       float64 `yaml:"duplicate_share" mapstructure:"duplicate_share"`
	OutlierRejectedShare float64 `yaml:"outlier_rejected_share" mapstructure:"outlier_rejected_share"`
}

// VerifyConfig holds the verification rule weights and thresholds.
// Rule weights must sum to 1.0; the verify engine checks this at
// construction.
type VerifyConfig struct {
	PriceRangeWeight float64 `yaml:"price_range_weight" mapstructure:"price_range_weight"`
	LocationWeight   float64 `yaml:"location_weight" mapstructure:"location_weight"`
	ReceiptWeight    float64 `yaml:"receipt_weight" mapstructure:"receipt_weight"`
	ReputationWeight float64 `yaml:"reputation_weight" mapstructure:"reputation_weight"`

	ConfidenceThreshold   float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	WarningConfidence     float64 `yaml:"warning_confidence" mapstructure:"warning_confidence"`
	PriceDeviationMax     float64 `yaml:"price_deviation_max" mapstructure:"price_deviation_max"`
	LocationDeviationMax  float64 `yaml:"location_deviation_max" mapstructure:"location_deviation_max"`
	MinReputation         float64 `yaml:"min_reputation" mapstructure:"min_reputation"`
	MaxRejectionRate      float64 `yaml:"max_rejection_rate" mapstructure:"max_rejection_rate"`
	WindowDays            int     `yaml:"window_days" mapstructure:"window_days"`
	PeerPriceTolerance    float64 `yaml:"peer_price_tolerance" mapstructure:"peer_price_tolerance"`
	RequiredVerifications int     `yaml:"required_verifications" mapstructure:"required_verifications"`
	MinGroupSize          int     `yaml:"min_group_size" mapstructure:"min_group_size"`
	MaxZScore             float64 `yaml:"max_z_score" mapstructure:"max_z_score"`
}

// SweepConfig configures the periodic cross-validation sweep.
type SweepConfig struct {
	IntervalMinutes int `yaml:"interval_minutes" mapstructure:"interval_minutes"`
	LookbackDays    int `yaml:"lookback_days" mapstructure:"lookback_days"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CROWDTRUST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 20)
	v.SetDefault("server.rate_burst", 40)

	v.SetDefault("intake.min_price", 1)
	v.SetDefault("intake.max_price", 10000)
	v.SetDefault("intake.min_product_name_len", 3)
	v.SetDefault("intake.markets", []string{
		"Migros", "CarrefourSA", "A101", "BİM", "Şok", "File Market",
		"Getir", "Trendyol", "Metro", "Makro", "Yerel Market",
	})

	v.SetDefault("trust.verification_rate_weight", 0.30)
	v.SetDefault("trust.accuracy_weight", 0.25)
	v.SetDefault("trust.receipt_rate_weight", 0.15)
	v.SetDefault("trust.consistency_weight", 0.15)
	v.SetDefault("trust.activity_weight", 0.10)
	v.SetDefault("trust.penalty_weight", 0.05)
	v.SetDefault("trust.initial_score", 0.5)
	v.SetDefault("trust.min_score", 0.1)
	v.SetDefault("trust.max_score", 1.0)
	v.SetDefault("trust.min_submissions", 5)
	v.SetDefault("trust.suspicious_daily_rate", 50)
	v.SetDefault("trust.high_rejection_rate", 0.3)
	v.SetDefault("trust.spam_window_hours", 24)
	v.SetDefault("trust.duplicate_share", 0.1)
	v.SetDefault("trust.outlier_rejected_share", 0.5)

	v.SetDefault("verify.price_range_weight", 0.30)
	v.SetDefault("verify.location_weight", 0.20)
	v.SetDefault("verify.receipt_weight", 0.30)
	v.SetDefault("verify.reputation_weight", 0.20)
	v.SetDefault("verify.confidence_threshold", 0.7)
	v.SetDefault("verify.warning_confidence", 0.7)
	v.SetDefault("verify.price_deviation_max", 0.30)
	v.SetDefault("verify.location_deviation_max", 0.20)
	v.SetDefault("verify.min_reputation", 0.3)
	v.SetDefault("verify.max_rejection_rate", 0.5)
	v.SetDefault("verify.window_days", 7)
	v.SetDefault("verify.peer_price_tolerance", 0.10)
	v.SetDefault("verify.required_verifications", 3)
	v.SetDefault("verify.min_group_size", 3)
	v.SetDefault("verify.max_z_score", 2.0)

	v.SetDefault("sweep.interval_minutes", 30)
	v.SetDefault("sweep.lookback_days", 7)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
