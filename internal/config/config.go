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
	Sults     SultsConfig     `yaml:"sults" mapstructure:"sults"`
	Filter    FilterConfig    `yaml:"filter" mapstructure:"filter"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Franchise FranchiseConfig `yaml:"franchise" mapstructure:"franchise"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SultsConfig holds SULTS API credentials and pagination behavior.
type SultsConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	FunnelID    int64  `yaml:"funnel_id" mapstructure:"funnel_id"`
	PageSize    int    `yaml:"page_size" mapstructure:"page_size"`
	MaxPages    int    `yaml:"max_pages" mapstructure:"max_pages"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// FilterConfig configures lead exclusion.
type FilterConfig struct {
	BlacklistIDs []int64 `yaml:"blacklist_ids" mapstructure:"blacklist_ids"`
}

// EnrichConfig configures the timeline enrichment fan-out.
type EnrichConfig struct {
	GroupSize int `yaml:"group_size" mapstructure:"group_size"`
}

// FranchiseConfig holds the per-state franchise city allow-lists. DF needs
// no list: the whole federal district counts as franchise territory.
type FranchiseConfig struct {
	CitiesMG []string `yaml:"cities_mg" mapstructure:"cities_mg"`
	CitiesGO []string `yaml:"cities_go" mapstructure:"cities_go"`
}

// ScoringConfig holds the fixed business constants behind the composite
// score and its tier thresholds.
type ScoringConfig struct {
	InvestmentCap float64          `yaml:"investment_cap" mapstructure:"investment_cap"`
	MinInvestment float64          `yaml:"min_investment" mapstructure:"min_investment"`
	Weights       WeightsConfig    `yaml:"weights" mapstructure:"weights"`
	Thresholds    ThresholdsConfig `yaml:"thresholds" mapstructure:"thresholds"`
}

// WeightsConfig holds the index weights of the composite score.
type WeightsConfig struct {
	Location   float64 `yaml:"location" mapstructure:"location"`
	Investment float64 `yaml:"investment" mapstructure:"investment"`
	Recency    float64 `yaml:"recency" mapstructure:"recency"`
}

// ThresholdsConfig holds the tier lower bounds, checked in descending order.
type ThresholdsConfig struct {
	MQLPlus  float64 `yaml:"mql_plus" mapstructure:"mql_plus"`
	MQL      float64 `yaml:"mql" mapstructure:"mql"`
	LeadPlus float64 `yaml:"lead_plus" mapstructure:"lead_plus"`
	Lead     float64 `yaml:"lead" mapstructure:"lead"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the refresh server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sults.base_url", "https://api.sults.com.br/api/v1/expansao")
	v.SetDefault("sults.funnel_id", 1)
	v.SetDefault("sults.page_size", 100)
	v.SetDefault("sults.max_pages", 51)
	v.SetDefault("sults.timeout_secs", 30)
	v.SetDefault("sults.max_retries", 3)
	v.SetDefault("filter.blacklist_ids", []int64{7286, 4918, 2067, 2090})
	v.SetDefault("enrich.group_size", 5)
	v.SetDefault("franchise.cities_mg", []string{
		"belo horizonte", "betim", "contagem", "nova lima", "pocos de caldas",
		"pouso alegre", "governador valadares", "ipatinga", "paracatu", "sabara",
		"sarzedo", "ibirite", "igarape", "pedro leopoldo", "vespasiano",
		"ribeirao das neves", "divinopolis", "itabirito", "brumadinho",
		"para de minas", "patos de minas",
		"esmeraldas", "barbacena", "bom despacho",
	})
	v.SetDefault("franchise.cities_go", []string{
		"anapolis", "aparecida de goiania", "goiania",
	})
	v.SetDefault("scoring.investment_cap", 200000.0)
	v.SetDefault("scoring.min_investment", 1000.0)
	v.SetDefault("scoring.weights.location", 3.0)
	v.SetDefault("scoring.weights.investment", 2.0)
	v.SetDefault("scoring.weights.recency", 0.5)
	v.SetDefault("scoring.thresholds.mql_plus", 4.09)
	v.SetDefault("scoring.thresholds.mql", 3.58)
	v.SetDefault("scoring.thresholds.lead_plus", 3.0)
	v.SetDefault("scoring.thresholds.lead", 0.62)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadscore.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
