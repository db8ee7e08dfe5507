package config

import (
	"log"
)

// AppConfig 所有进程共用的配置结构（api / worker / scheduler / cli）
type AppConfig struct {
	ServiceName string         `yaml:"service_name"`
	DB          DBConfig       `yaml:"db"`
	MQ          MQConfig       `yaml:"mq"`
	Redis       RedisConfig    `yaml:"redis"`
	JWT         JWTConfig      `yaml:"jwt"`
	Server      ServerConfig   `yaml:"server"`
	Log         LogConfig      `yaml:"log"`
	OTel        OTelConfig     `yaml:"otel"`
	Followup    FollowupConfig `yaml:"followup"`
	Payments    PaymentsConfig `yaml:"payments"`
	Vendors     VendorsConfig  `yaml:"vendors"`
}

// Load 使用统一配置中心加载配置，失败直接退出
func Load() *AppConfig {
	cfg, err := LoadApp(GetConfigEnv(), GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// LoadApp 加载并解码配置，补齐默认值，最后由环境变量覆盖
func LoadApp(env, configDir string) (*AppConfig, error) {
	cfgMap, err := LoadConfig(env, configDir)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// 环境变量覆盖（优先级最高）
	OverrideDBFromEnv(&cfg.DB)
	OverrideMQFromEnv(&cfg.MQ)
	OverrideRedisFromEnv(&cfg.Redis)
	OverrideJWTFromEnv(&cfg.JWT)
	OverrideServerFromEnv(&cfg.Server)
	OverrideVendorsFromEnv(&cfg.Vendors)

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "foreclosure-assist"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Followup.Schedule == "" {
		cfg.Followup.Schedule = "0 9 * * *"
	}
	if len(cfg.Followup.DayOffsets) == 0 {
		cfg.Followup.DayOffsets = []int{1, 3, 7}
	}
	if cfg.Followup.DedupTTLHours == 0 {
		cfg.Followup.DedupTTLHours = 72
	}

	for name, plan := range cfg.Payments.Plans {
		if plan.Currency == "" {
			plan.Currency = "USD"
			cfg.Payments.Plans[name] = plan
		}
	}

	defaultBase(&cfg.Vendors.HubSpot, "https://api.hubapi.com")
	defaultBase(&cfg.Vendors.MailerLite, "https://connect.mailerlite.com/api")
	defaultBase(&cfg.Vendors.Twilio, "https://api.twilio.com/2010-04-01")
	defaultBase(&cfg.Vendors.Stripe, "https://api.stripe.com/v1")
	defaultBase(&cfg.Vendors.PayPal, "https://api-m.sandbox.paypal.com")
	defaultBase(&cfg.Vendors.GoogleMaps, "https://maps.googleapis.com/maps/api")
	defaultBase(&cfg.Vendors.Nominatim, "https://nominatim.openstreetmap.org")
	defaultBase(&cfg.Vendors.Census, "https://geocoding.geo.census.gov/geocoder")
	defaultBase(&cfg.Vendors.CensusACS, "https://api.census.gov/data/2022/acs/acs5")
	defaultBase(&cfg.Vendors.Overpass, "https://overpass-api.de/api")
}

func defaultBase(v *VendorConfig, base string) {
	if v.BaseURL == "" {
		v.BaseURL = base
	}
	if v.TimeoutSec == 0 {
		v.TimeoutSec = 10
	}
}
