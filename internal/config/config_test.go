package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker = "localhost:9092"
	testKakaoKey  = "kakao-rest-key"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://www.safetydata.go.kr/V2/api", cfg.DataAPIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.DataAPITimeout)
	assert.Equal(t, 1000, cfg.DataAPIPageSize)
	assert.Equal(t, 1, cfg.DataAPIMaxPages)
	assert.False(t, cfg.KakaoEnabled)
	assert.Empty(t, cfg.KakaoRESTKey)
	assert.Equal(t, 5*time.Second, cfg.KakaoTimeout)
	assert.Equal(t, 1000, cfg.KakaoCacheSize)
	assert.InDelta(t, 10, cfg.KakaoRateLimit, 0)
	assert.Equal(t, 8, cfg.GeocodeConcurrency)
	assert.Equal(t, 30, cfg.FacilityMapLimit)
	assert.Equal(t, 100, cfg.AccidentMapLimit)
	assert.Empty(t, cfg.LoadSchedule)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "sinkhole-region-reports", cfg.KafkaReportTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DATA_API_BASE_URL", "http://localhost:8000/api")
	t.Setenv("DATA_API_TIMEOUT", "3s")
	t.Setenv("DATA_API_PAGE_SIZE", "200")
	t.Setenv("DATA_API_MAX_PAGES", "5")
	t.Setenv("RISK_SERVICE_KEY", "risk")
	t.Setenv("ACCIDENT_SERVICE_KEY", "accident")
	t.Setenv("INCIDENT_SERVICE_KEY", "incident")
	t.Setenv("FACILITY_SERVICE_KEY", "facility")
	t.Setenv("KAKAO_REST_KEY", testKakaoKey)
	t.Setenv("KAKAO_TIMEOUT", "2s")
	t.Setenv("KAKAO_CACHE_SIZE", "50")
	t.Setenv("KAKAO_RATE_LIMIT", "2.5")
	t.Setenv("GEOCODE_CONCURRENCY", "4")
	t.Setenv("FACILITY_MAP_LIMIT", "10")
	t.Setenv("ACCIDENT_MAP_LIMIT", "20")
	t.Setenv("LOAD_SCHEDULE", "0 */6 * * *")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8000/api", cfg.DataAPIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.DataAPITimeout)
	assert.Equal(t, 200, cfg.DataAPIPageSize)
	assert.Equal(t, 5, cfg.DataAPIMaxPages)
	assert.Equal(t, "risk", cfg.RiskServiceKey)
	assert.Equal(t, "accident", cfg.AccidentServiceKey)
	assert.Equal(t, "incident", cfg.IncidentServiceKey)
	assert.Equal(t, "facility", cfg.FacilityServiceKey)
	assert.True(t, cfg.KakaoEnabled)
	assert.Equal(t, testKakaoKey, cfg.KakaoRESTKey)
	assert.Equal(t, 2*time.Second, cfg.KakaoTimeout)
	assert.Equal(t, 50, cfg.KakaoCacheSize)
	assert.InDelta(t, 2.5, cfg.KakaoRateLimit, 0)
	assert.Equal(t, 4, cfg.GeocodeConcurrency)
	assert.Equal(t, 10, cfg.FacilityMapLimit)
	assert.Equal(t, 20, cfg.AccidentMapLimit)
	assert.Equal(t, "0 */6 * * *", cfg.LoadSchedule)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DATA_API_TIMEOUT", "bad"},
		{"DATA_API_TIMEOUT", "-1s"},
		{"DATA_API_PAGE_SIZE", "0"},
		{"DATA_API_MAX_PAGES", "many"},
		{"KAKAO_TIMEOUT", "0s"},
		{"KAKAO_CACHE_SIZE", "-5"},
		{"KAKAO_RATE_LIMIT", "0"},
		{"GEOCODE_CONCURRENCY", "0"},
		{"FACILITY_MAP_LIMIT", "x"},
		{"ACCIDENT_MAP_LIMIT", "-1"},
		{"KAFKA_ENABLED", "maybe"},
		{"KAKAO_ENABLED", "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_MultipleErrorsReportedTogether(t *testing.T) {
	t.Setenv("DATA_API_PAGE_SIZE", "0")
	t.Setenv("GEOCODE_CONCURRENCY", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_API_PAGE_SIZE")
	assert.Contains(t, err.Error(), "GEOCODE_CONCURRENCY")
}

func TestLoad_InvalidLoadSchedule(t *testing.T) {
	t.Setenv("LOAD_SCHEDULE", "every tuesday")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOAD_SCHEDULE")
}

func TestLoad_KakaoEnabledWithoutKey(t *testing.T) {
	t.Setenv("KAKAO_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAKAO_REST_KEY")
}

func TestLoad_KakaoKeyImpliesEnabled(t *testing.T) {
	t.Setenv("KAKAO_REST_KEY", testKakaoKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KakaoEnabled)
}

func TestLoad_KakaoExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAKAO_REST_KEY", testKakaoKey)
	t.Setenv("KAKAO_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KakaoEnabled)
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
