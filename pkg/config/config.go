package config

import (
	"os"
	"strconv"
	"strings"
)

// DBConfig 数据库配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// 慢查询阈值（毫秒），0 表示使用默认 100ms
	SlowQueryMS int `yaml:"slow_query_ms"`
}

// MQConfig 消息队列配置
type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `yaml:"port"`
	// 对外访问地址，用于校验 Twilio webhook 签名
	PublicURL string `yaml:"public_url"`
	// 缺少签名配置时仍接受 Twilio 回调，仅限本地开发
	AllowUnsignedWebhooks bool `yaml:"allow_unsigned_webhooks"`
	// 每个客户端每秒允许的请求数
	RateLimitRPS   int `yaml:"rate_limit_rps"`
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// LogConfig 日志配置，File 为空时只输出到 stdout
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// OTelConfig OpenTelemetry 配置
type OTelConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Endpoint       string `yaml:"endpoint"`
	ServiceVersion string `yaml:"service_version"`
	// 采样率 (0,1]，默认 1
	SampleRatio float64 `yaml:"sample_ratio"`
}

// FollowupConfig 跟进邮件任务配置
type FollowupConfig struct {
	Schedule   string `yaml:"schedule"`
	DayOffsets []int  `yaml:"day_offsets"`
	// 去重 key 的有效期（小时）
	DedupTTLHours int    `yaml:"dedup_ttl_hours"`
	FromEmail     string `yaml:"from_email"`
	FromName      string `yaml:"from_name"`
	AdminEmail    string `yaml:"admin_email"`
}

// PlanConfig 一个订阅套餐
type PlanConfig struct {
	StripePriceID string `yaml:"stripe_price_id"`
	AmountCents   int64  `yaml:"amount_cents"`
	Currency      string `yaml:"currency"`
}

// PaymentsConfig 支付相关配置，Plans 的 key 为套餐名
type PaymentsConfig struct {
	SuccessURL string                `yaml:"success_url"`
	CancelURL  string                `yaml:"cancel_url"`
	Plans      map[string]PlanConfig `yaml:"plans"`
}

// VendorConfig 第三方 API 的通用配置
type VendorConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Secret    string `yaml:"secret"`
	AccountID string `yaml:"account_id"`
	// 发送方号码（Twilio）
	From string `yaml:"from"`
	// 每秒请求数上限，0 表示不限速
	RPS        float64 `yaml:"rps"`
	TimeoutSec int     `yaml:"timeout_sec"`
	// 订阅者分组（MailerLite 线索分组）
	Groups []string `yaml:"groups"`
}

// VendorsConfig 所有第三方 API 配置
type VendorsConfig struct {
	HubSpot    VendorConfig `yaml:"hubspot"`
	MailerLite VendorConfig `yaml:"mailerlite"`
	Twilio     VendorConfig `yaml:"twilio"`
	Stripe     VendorConfig `yaml:"stripe"`
	PayPal     VendorConfig `yaml:"paypal"`
	GoogleMaps VendorConfig `yaml:"google_maps"`
	Nominatim  VendorConfig `yaml:"nominatim"`
	Census     VendorConfig `yaml:"census"`
	CensusACS  VendorConfig `yaml:"census_acs"`
	CountyGIS  VendorConfig `yaml:"county_gis"`
	Overpass   VendorConfig `yaml:"overpass"`
}

// OverrideDBFromEnv 从环境变量覆盖数据库配置
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		cfg.SSLMode = sslmode
	}
}

// OverrideMQFromEnv 从环境变量覆盖MQ配置
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRedisFromEnv 从环境变量覆盖Redis配置
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

// OverrideJWTFromEnv 从环境变量覆盖JWT配置
func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

// OverrideServerFromEnv 从环境变量覆盖服务器配置
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if publicURL := os.Getenv("SERVER_PUBLIC_URL"); publicURL != "" {
		cfg.PublicURL = strings.TrimSuffix(publicURL, "/")
	}
}

// OverrideVendorsFromEnv 从环境变量覆盖第三方密钥，变量名形如 HUBSPOT_API_KEY、STRIPE_SECRET
func OverrideVendorsFromEnv(cfg *VendorsConfig) {
	vendors := map[string]*VendorConfig{
		"HUBSPOT":     &cfg.HubSpot,
		"MAILERLITE":  &cfg.MailerLite,
		"TWILIO":      &cfg.Twilio,
		"STRIPE":      &cfg.Stripe,
		"PAYPAL":      &cfg.PayPal,
		"GOOGLE_MAPS": &cfg.GoogleMaps,
		"CENSUS":      &cfg.CensusACS,
	}
	for prefix, v := range vendors {
		if key := os.Getenv(prefix + "_API_KEY"); key != "" {
			v.APIKey = key
		}
		if secret := os.Getenv(prefix + "_SECRET"); secret != "" {
			v.Secret = secret
		}
		if account := os.Getenv(prefix + "_ACCOUNT_ID"); account != "" {
			v.AccountID = account
		}
		if base := os.Getenv(prefix + "_BASE_URL"); base != "" {
			v.BaseURL = strings.TrimSuffix(base, "/")
		}
	}
	if from := os.Getenv("TWILIO_FROM_NUMBER"); from != "" {
		cfg.Twilio.From = from
	}
}
