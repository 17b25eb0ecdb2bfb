package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/pipeline/replenishment"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Data     DataConfig
	Scoring  ScoringConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Schedule ScheduleConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// Source kinds accepted by DATA_SOURCE
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceS3       = "s3"
	SourceDrive    = "drive"
)

type DataConfig struct {
	Source      string
	StockPath   string
	SalesPath   string
	DownloadDir string
	// SalesFrom is the default lower bound (inclusive) of the monthly series
	SalesFrom time.Time
}

type ScoringConfig struct {
	ServiceLevelZ  float64
	WeightDemand   float64
	WeightPrice    float64
	WeightRisk     float64
	VariancePolicy string
	TopN           int
	Locale         string
}

type DatabaseConfig struct {
	URL                  string
	Host                 string
	Port                 string
	User                 string
	Password             string
	DBName               string
	SSLMode              string
	StockTable           string
	SalesTable           string
	MaxConcurrentQueries int64
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	StockKey  string
	SalesKey  string
}

type DriveConfig struct {
	CredentialsFile     string
	FolderID            string
	StockFileName       string
	SalesFileName       string
	PollIntervalSeconds int
}

type ScheduleConfig struct {
	RefreshCron string
}

type PipelineConfig struct {
	WorkerCount int
}

var (
	once     sync.Once
	instance *Config
)

// Load reads the configuration once per process. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()

		cfg, err := Read()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}
		instance = cfg
	})

	return instance
}

// Read builds a fresh configuration from defaults and the environment
func Read() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var salesFrom time.Time
	if raw := strings.TrimSpace(v.GetString("DATA_SALES_FROM")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("DATA_SALES_FROM: %w", err)
		}
		salesFrom = t
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Data: DataConfig{
			Source:      strings.ToLower(v.GetString("DATA_SOURCE")),
			StockPath:   v.GetString("DATA_STOCK_PATH"),
			SalesPath:   v.GetString("DATA_SALES_PATH"),
			DownloadDir: v.GetString("DATA_DOWNLOAD_DIR"),
			SalesFrom:   salesFrom,
		},
		Scoring: ScoringConfig{
			ServiceLevelZ:  v.GetFloat64("SCORING_SERVICE_LEVEL_Z"),
			WeightDemand:   v.GetFloat64("SCORING_WEIGHT_DEMAND"),
			WeightPrice:    v.GetFloat64("SCORING_WEIGHT_PRICE"),
			WeightRisk:     v.GetFloat64("SCORING_WEIGHT_RISK"),
			VariancePolicy: v.GetString("SCORING_VARIANCE_POLICY"),
			TopN:           v.GetInt("SCORING_TOP_N"),
			Locale:         v.GetString("SCORING_LOCALE"),
		},
		Database: DatabaseConfig{
			URL:                  v.GetString("DATABASE_URL"),
			Host:                 v.GetString("DB_HOST"),
			Port:                 v.GetString("DB_PORT"),
			User:                 v.GetString("DB_USER"),
			Password:             v.GetString("DB_PASSWORD"),
			DBName:               v.GetString("DB_NAME"),
			SSLMode:              v.GetString("DB_SSLMODE"),
			StockTable:           v.GetString("DB_STOCK_TABLE"),
			SalesTable:           v.GetString("DB_SALES_TABLE"),
			MaxConcurrentQueries: v.GetInt64("DB_MAX_CONCURRENT_QUERIES"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			DashboardTTLSeconds: v.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
			StockKey:  v.GetString("S3_STOCK_KEY"),
			SalesKey:  v.GetString("S3_SALES_KEY"),
		},
		Drive: DriveConfig{
			CredentialsFile:     v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
			FolderID:            v.GetString("DRIVE_FOLDER_ID"),
			StockFileName:       v.GetString("DRIVE_STOCK_FILE"),
			SalesFileName:       v.GetString("DRIVE_SALES_FILE"),
			PollIntervalSeconds: v.GetInt("DRIVE_POLL_INTERVAL_SECONDS"),
		},
		Schedule: ScheduleConfig{
			RefreshCron: v.GetString("SCHEDULE_REFRESH_CRON"),
		},
		Pipeline: PipelineConfig{
			WorkerCount: v.GetInt("PIPELINE_WORKER_COUNT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("DATA_SOURCE", SourceFile)
	v.SetDefault("DATA_STOCK_PATH", "./data/estoque.csv")
	v.SetDefault("DATA_SALES_PATH", "./data/log_vendas.csv")
	v.SetDefault("DATA_DOWNLOAD_DIR", "./data/downloads")
	v.SetDefault("DATA_SALES_FROM", "")

	v.SetDefault("SCORING_SERVICE_LEVEL_Z", replenishment.DefaultServiceLevelZ)
	w := domain.DefaultWeights()
	v.SetDefault("SCORING_WEIGHT_DEMAND", w.Demand)
	v.SetDefault("SCORING_WEIGHT_PRICE", w.Price)
	v.SetDefault("SCORING_WEIGHT_RISK", w.Risk)
	v.SetDefault("SCORING_VARIANCE_POLICY", domain.VariancePolicyExclude.String())
	v.SetDefault("SCORING_TOP_N", 5)
	v.SetDefault("SCORING_LOCALE", "pt")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "replenishment")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_STOCK_TABLE", "stock_snapshot")
	v.SetDefault("DB_SALES_TABLE", "sales_log")
	v.SetDefault("DB_MAX_CONCURRENT_QUERIES", 10)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)

	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("S3_STOCK_KEY", "estoque.csv")
	v.SetDefault("S3_SALES_KEY", "log_vendas.csv")

	v.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")
	v.SetDefault("DRIVE_FOLDER_ID", "")
	v.SetDefault("DRIVE_STOCK_FILE", "estoque.csv")
	v.SetDefault("DRIVE_SALES_FILE", "log_vendas.csv")
	v.SetDefault("DRIVE_POLL_INTERVAL_SECONDS", 0)

	v.SetDefault("SCHEDULE_REFRESH_CRON", "")
	v.SetDefault("PIPELINE_WORKER_COUNT", 4)
}

// Validate checks the settings that would otherwise fail far from their source
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFile, SourcePostgres, SourceS3, SourceDrive:
	default:
		return fmt.Errorf("DATA_SOURCE: unknown source %q", c.Data.Source)
	}
	if _, err := c.Scoring.Params(); err != nil {
		return err
	}
	if c.Pipeline.WorkerCount < 1 {
		return fmt.Errorf("PIPELINE_WORKER_COUNT must be at least 1, got %d", c.Pipeline.WorkerCount)
	}
	return nil
}

// Params converts the scoring settings into pipeline parameters
func (s ScoringConfig) Params() (replenishment.Params, error) {
	policy, ok := domain.ParseVariancePolicy(s.VariancePolicy)
	if !ok {
		return replenishment.Params{}, fmt.Errorf("SCORING_VARIANCE_POLICY: unknown policy %q", s.VariancePolicy)
	}

	p := replenishment.Params{
		ServiceLevelZ: s.ServiceLevelZ,
		Weights: domain.Weights{
			Demand: s.WeightDemand,
			Price:  s.WeightPrice,
			Risk:   s.WeightRisk,
		},
		VariancePolicy: policy,
	}
	if err := p.Validate(); err != nil {
		return replenishment.Params{}, err
	}
	return p, nil
}

// DashboardTTL returns the cache lifetime of a dashboard
func (c CacheConfig) DashboardTTL() time.Duration {
	return time.Duration(c.DashboardTTLSeconds) * time.Second
}

// EnsureDir creates dir if it does not exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
