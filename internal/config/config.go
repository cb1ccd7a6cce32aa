package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/campusgrid/timetabling/pkg/model"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Cache     CacheConfig
	Store     StoreConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig holds the search tuning handed to every run.
type SchedulerConfig struct {
	NodeBudget         int
	PreferPairedLabs   bool
	LoadPenaltyWeight  float64
	SchedulesSelfStudy bool
	PracticalBlock     int
	ImprovementRounds  int
	Timeout            time.Duration
}

// CacheConfig toggles the Redis cache of computed schedules.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// StoreConfig toggles the Postgres snapshot store.
type StoreConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		NodeBudget:         v.GetInt("SCHEDULER_NODE_BUDGET"),
		PreferPairedLabs:   v.GetBool("SCHEDULER_PREFER_PAIRED_LABS"),
		LoadPenaltyWeight:  v.GetFloat64("SCHEDULER_LOAD_PENALTY_WEIGHT"),
		SchedulesSelfStudy: v.GetBool("SCHEDULER_SELF_STUDY"),
		PracticalBlock:     v.GetInt("SCHEDULER_PRACTICAL_BLOCK"),
		ImprovementRounds:  v.GetInt("SCHEDULER_IMPROVEMENT_ROUNDS"),
		Timeout:            parseDuration(v.GetString("SCHEDULER_TIMEOUT"), 30*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Store = StoreConfig{
		Enabled: v.GetBool("ENABLE_STORE"),
	}

	return cfg, nil
}

// Model converts the scheduler settings into the search configuration
func (cfg SchedulerConfig) Model() model.Config {
	return model.Config{
		NodeBudget:         cfg.NodeBudget,
		PreferPairedLabs:   cfg.PreferPairedLabs,
		LoadPenaltyWeight:  cfg.LoadPenaltyWeight,
		SchedulesSelfStudy: cfg.SchedulesSelfStudy,
		PracticalBlock:     cfg.PracticalBlock,
		ImprovementRounds:  cfg.ImprovementRounds,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetabling")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_NODE_BUDGET", model.DefaultNodeBudget)
	v.SetDefault("SCHEDULER_PREFER_PAIRED_LABS", false)
	v.SetDefault("SCHEDULER_LOAD_PENALTY_WEIGHT", model.DefaultLoadPenaltyWeight)
	v.SetDefault("SCHEDULER_SELF_STUDY", false)
	v.SetDefault("SCHEDULER_PRACTICAL_BLOCK", 1)
	v.SetDefault("SCHEDULER_IMPROVEMENT_ROUNDS", model.DefaultImprovementRounds)
	v.SetDefault("SCHEDULER_TIMEOUT", "30s")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("SCHEDULE_CACHE_TTL", "10m")
	v.SetDefault("ENABLE_STORE", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
