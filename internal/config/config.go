// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config는 게이트웨이 전체 설정을 담습니다 (YAML)
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Catalogs CatalogsConfig `yaml:"catalogs"`
	Data     DataConfig     `yaml:"data"`
}

// GatewayConfig 게이트웨이 기본 설정
type GatewayConfig struct {
	Listen string `yaml:"listen"`
	LogDir string `yaml:"log_dir"`
}

// CatalogsConfig 패턴 카탈로그 파일 경로
type CatalogsConfig struct {
	PIIPath    string `yaml:"pii_path"`
	ThreatPath string `yaml:"threat_path"`
}

// DataConfig 로컬 데이터 경로
type DataConfig struct {
	ScamDBPath     string `yaml:"scam_db_path"`
	SnapshotPath   string `yaml:"phishing_snapshot_path"`
	ConversationDB string `yaml:"conversation_db_path"`
}

// LoadConfig YAML 파일에서 설정을 로드합니다
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default 설정 파일 없이 기본값으로 구성
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Gateway.Listen == "" {
		cfg.Gateway.Listen = ":8084"
	}
	if cfg.Gateway.LogDir == "" {
		cfg.Gateway.LogDir = "./logs"
	}
	if cfg.Catalogs.PIIPath == "" {
		cfg.Catalogs.PIIPath = "./data/sensitive_patterns.json"
	}
	if cfg.Catalogs.ThreatPath == "" {
		cfg.Catalogs.ThreatPath = "./data/threat_patterns.json"
	}
	if cfg.Data.ScamDBPath == "" {
		cfg.Data.ScamDBPath = "./data/scam_db.json"
	}
	if cfg.Data.SnapshotPath == "" {
		cfg.Data.SnapshotPath = "./data/phishing_snapshot.json"
	}
	if cfg.Data.ConversationDB == "" {
		cfg.Data.ConversationDB = "./data/conversations.db"
	}
}

// AnalyzerConfig 분석 파이프라인 런타임 설정 (환경변수)
type AnalyzerConfig struct {
	MaxTextBytes int     `json:"max_text_bytes"`
	FusionMode   string  `json:"fusion_mode"` // bayesian | staged
	EnableLLM    bool    `json:"enable_llm"`
	LLMEpsilon   float64 `json:"llm_epsilon"`
}

// IntelConfig 위협 인텔 조회 설정
type IntelConfig struct {
	ProviderTimeout time.Duration `json:"provider_timeout"`
	MaxConcurrent   int64         `json:"max_concurrent"`
	URLMinInterval  time.Duration `json:"url_min_interval"`
	SnapshotTTL     time.Duration `json:"snapshot_ttl"`
	MaxRetries      int           `json:"max_retries"`
	ReportLookupURL string        `json:"report_lookup_url"` // 비어 있으면 원격 조회 비활성
	ReportLookupKey string        `json:"report_lookup_key"`
	URLEngineURL    string        `json:"url_engine_url"` // 비어 있으면 URL 엔진 비활성
	URLEngineKey    string        `json:"url_engine_key"`
}

// CacheConfig 조회 결과 캐시 설정
type CacheConfig struct {
	Enabled       bool          `json:"enabled"`
	RedisAddress  string        `json:"redis_address"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	MemorySize    int           `json:"memory_size"`
	MemoryTTL     time.Duration `json:"memory_ttl"`
	RedisTTL      time.Duration `json:"redis_ttl"`
}

// LLMConfig 판정 LLM 서버 설정
type LLMConfig struct {
	ServerAddress  string        `json:"server_address"`
	Timeout        time.Duration `json:"timeout"`
	KeepAlive      time.Duration `json:"keep_alive"`
	MaxMessageSize int           `json:"max_message_size"`
	Model          string        `json:"model"`
	Sequential     bool          `json:"sequential"`
}

// LoadAnalyzerConfig 환경변수에서 런타임 설정 로드
func LoadAnalyzerConfig() (*AnalyzerConfig, *IntelConfig, *CacheConfig, *LLMConfig) {
	return &AnalyzerConfig{
			MaxTextBytes: getEnvInt("ANALYZER_MAX_TEXT_BYTES", 8*1024),
			FusionMode:   getEnv("FUSION_MODE", "staged"),
			EnableLLM:    getEnvBool("ENABLE_LLM", false),
			LLMEpsilon:   getEnvFloat("LLM_OVERRIDE_EPSILON", 0.1),
		}, &IntelConfig{
			ProviderTimeout: time.Duration(getEnvInt("INTEL_PROVIDER_TIMEOUT", 10)) * time.Second,
			MaxConcurrent:   int64(getEnvInt("INTEL_MAX_CONCURRENT", 4)),
			URLMinInterval:  time.Duration(getEnvInt("INTEL_URL_MIN_INTERVAL", 15)) * time.Second,
			SnapshotTTL:     time.Duration(getEnvInt("INTEL_SNAPSHOT_TTL_HOURS", 24)) * time.Hour,
			MaxRetries:      getEnvInt("INTEL_MAX_RETRIES", 3),
			ReportLookupURL: getEnv("REPORT_LOOKUP_URL", ""),
			ReportLookupKey: getEnv("REPORT_LOOKUP_API_KEY", ""),
			URLEngineURL:    getEnv("URL_ENGINE_URL", ""),
			URLEngineKey:    getEnv("URL_ENGINE_API_KEY", ""),
		}, &CacheConfig{
			Enabled:       getEnvBool("INTEL_CACHE_ENABLED", true),
			RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			MemorySize:    getEnvInt("MEMORY_CACHE_SIZE", 1000),
			MemoryTTL:     time.Duration(getEnvInt("MEMORY_CACHE_TTL", 60)) * time.Second,
			RedisTTL:      time.Duration(getEnvInt("REDIS_CACHE_TTL", 600)) * time.Second,
		}, &LLMConfig{
			ServerAddress:  getEnv("LLM_SERVER_ADDRESS", "localhost:50051"),
			Timeout:        time.Duration(getEnvInt("LLM_TIMEOUT", 30)) * time.Second,
			KeepAlive:      time.Duration(getEnvInt("LLM_KEEP_ALIVE", 30)) * time.Second,
			MaxMessageSize: getEnvInt("LLM_MAX_MESSAGE_SIZE", 4*1024*1024), // 4MB
			Model:          getEnv("LLM_MODEL", "instruct"),
			Sequential:     getEnvBool("LLM_SEQUENTIAL_MODE", true),
		}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
