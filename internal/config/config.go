package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Disaster safety data portal.
	DataAPIBaseURL  string
	DataAPITimeout  time.Duration
	DataAPIPageSize int
	DataAPIMaxPages int

	RiskServiceKey     string
	AccidentServiceKey string
	IncidentServiceKey string
	FacilityServiceKey string

	// Kakao geocoding configuration.
	KakaoRESTKey   string
	KakaoEnabled   bool
	KakaoTimeout   time.Duration
	KakaoCacheSize int
	KakaoRateLimit float64

	GeocodeConcurrency int
	FacilityMapLimit   int
	AccidentMapLimit   int

	// LoadSchedule is a five-field cron spec; empty loads once at start.
	LoadSchedule string

	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	var errs []error
	dataTimeout := parseDuration("DATA_API_TIMEOUT", "10s", &errs)
	kakaoTimeout := parseDuration("KAKAO_TIMEOUT", "5s", &errs)

	kakaoKey := os.Getenv("KAKAO_REST_KEY")
	kakaoEnabled := kakaoKey != ""
	if v := os.Getenv("KAKAO_ENABLED"); v != "" {
		kakaoEnabled = parseBool("KAKAO_ENABLED", v, &errs)
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = parseBool("KAFKA_ENABLED", v, &errs)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataAPIBaseURL:  sharedcfg.EnvOrDefault("DATA_API_BASE_URL", "https://www.safetydata.go.kr/V2/api"),
		DataAPITimeout:  dataTimeout,
		DataAPIPageSize: parsePositiveInt("DATA_API_PAGE_SIZE", 1000, &errs),
		DataAPIMaxPages: parsePositiveInt("DATA_API_MAX_PAGES", 1, &errs),

		RiskServiceKey:     os.Getenv("RISK_SERVICE_KEY"),
		AccidentServiceKey: os.Getenv("ACCIDENT_SERVICE_KEY"),
		IncidentServiceKey: os.Getenv("INCIDENT_SERVICE_KEY"),
		FacilityServiceKey: os.Getenv("FACILITY_SERVICE_KEY"),

		KakaoRESTKey:   kakaoKey,
		KakaoEnabled:   kakaoEnabled,
		KakaoTimeout:   kakaoTimeout,
		KakaoCacheSize: parsePositiveInt("KAKAO_CACHE_SIZE", 1000, &errs),
		KakaoRateLimit: parsePositiveFloat("KAKAO_RATE_LIMIT", 10, &errs),

		GeocodeConcurrency: parsePositiveInt("GEOCODE_CONCURRENCY", 8, &errs),
		FacilityMapLimit:   parsePositiveInt("FACILITY_MAP_LIMIT", 30, &errs),
		AccidentMapLimit:   parsePositiveInt("ACCIDENT_MAP_LIMIT", 100, &errs),

		LoadSchedule: strings.TrimSpace(os.Getenv("LOAD_SCHEDULE")),

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "sinkhole-region-reports"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.LoadSchedule != "" {
		if _, err := cron.ParseStandard(cfg.LoadSchedule); err != nil {
			return nil, fmt.Errorf("invalid LOAD_SCHEDULE: %w", err)
		}
	}
	if cfg.KakaoEnabled && cfg.KakaoRESTKey == "" {
		return nil, errors.New("KAKAO_ENABLED is true but KAKAO_REST_KEY is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaReportTopic == "" {
			return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, fallback string, errs *[]error) time.Duration {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s: must be a positive duration", key))
		return 0
	}
	return d
}

func parsePositiveInt(key string, fallback int, errs *[]error) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		*errs = append(*errs, fmt.Errorf("invalid %s: must be a positive integer", key))
		return 0
	}
	return n
}

func parsePositiveFloat(key string, fallback float64, errs *[]error) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s: must be a positive number", key))
		return 0
	}
	return f
}

func parseBool(key, value string, errs *[]error) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: must be true or false", key))
		return false
	}
	return b
}
