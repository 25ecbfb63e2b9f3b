package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"luvv"`
	DBPath     string `env:"DBPath" envDefault:"datas/luvv.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	// 模型服务商
	GeminiAPIKey      string `env:"GEMINI_API_KEY" envDefault:""`
	GeminiModel       string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GroqAPIKey        string `env:"GROQ_API_KEY" envDefault:""`
	GroqModel         string `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
	GroqBaseURL       string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY" envDefault:""`
	OpenRouterModel   string `env:"OPENROUTER_MODEL" envDefault:"meta-llama/llama-3.1-8b-instruct"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	VolcengineAPIKey  string `env:"VOLCENGINE_API_KEY" envDefault:""`
	VolcengineModel   string `env:"VOLCENGINE_MODEL" envDefault:"doubao-1-5-lite-32k-250115"`
	VolcengineBaseURL string `env:"VOLCENGINE_BASE_URL" envDefault:""`

	// 调度与配额
	ProviderOrder          []string       `env:"PROVIDER_ORDER" envSeparator:"," envDefault:"gemini,groq,openrouter,volcengine"`
	ProviderPolicy         string         `env:"PROVIDER_POLICY" envDefault:"priority"`
	ProviderDailyLimit     int            `env:"PROVIDER_DAILY_LIMIT" envDefault:"250"`
	ProviderDailyLimits    map[string]int `env:"PROVIDER_DAILY_LIMITS" envSeparator:"," envKeyValSeparator:":"`
	ProviderMaxAttempts    int            `env:"PROVIDER_MAX_ATTEMPTS" envDefault:"2"`
	ProviderBackoffBase    time.Duration  `env:"PROVIDER_BACKOFF_BASE" envDefault:"400ms"`
	ProviderBackoffMax     time.Duration  `env:"PROVIDER_BACKOFF_MAX" envDefault:"4s"`
	ProviderAttemptTimeout time.Duration  `env:"PROVIDER_ATTEMPT_TIMEOUT" envDefault:"20s"`
	GenerationTimeout      time.Duration  `env:"GENERATION_TIMEOUT" envDefault:"45s"`
	PersistTimeout         time.Duration  `env:"PERSIST_TIMEOUT" envDefault:"10s"`
	QuotaTimezone          string         `env:"QUOTA_TIMEZONE" envDefault:"UTC"`
	CacheMinTemplates      int            `env:"CACHE_MIN_TEMPLATES" envDefault:"3"`
	CacheScanLimit         int            `env:"CACHE_SCAN_LIMIT" envDefault:"50"`
	SeedTemplates          bool           `env:"SEED_TEMPLATES" envDefault:"true"`

	RedisAddr         string `env:"REDIS_ADDR" envDefault:""`
	RedisPassword     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB           int    `env:"REDIS_DB" envDefault:"0"`
	RotationCursorKey string `env:"ROTATION_CURSOR_KEY" envDefault:"luvv:provider_cursor"`

	StorageType          string `env:"STORAGE_TYPE" envDefault:"local"`
	StorageLocalDir      string `env:"STORAGE_LOCAL_DIR" envDefault:"datas/cards"`
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"/files"`
	CardMaxBytes         int    `env:"CARD_MAX_BYTES" envDefault:"8388608"`

	// S3 兼容存储配置
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// 阿里云 OSS 存储配置
	StorageOSSEndpoint        string `env:"STORAGE_OSS_ENDPOINT"`
	StorageOSSBucket          string `env:"STORAGE_OSS_BUCKET"`
	StorageOSSPrefix          string `env:"STORAGE_OSS_PREFIX"`
	StorageOSSAccessKeyID     string `env:"STORAGE_OSS_ACCESS_KEY_ID"`
	StorageOSSAccessKeySecret string `env:"STORAGE_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	StorageCOSBucketURL string `env:"STORAGE_COS_BUCKET_URL"`
	StorageCOSPrefix    string `env:"STORAGE_COS_PREFIX"`
	StorageCOSSecretID  string `env:"STORAGE_COS_SECRET_ID"`
	StorageCOSSecretKey string `env:"STORAGE_COS_SECRET_KEY"`

	// Cloudflare R2 存储配置
	StorageR2AccountID       string `env:"STORAGE_R2_ACCOUNT_ID"`
	StorageR2Endpoint        string `env:"STORAGE_R2_ENDPOINT"`
	StorageR2Region          string `env:"STORAGE_R2_REGION" envDefault:"auto"`
	StorageR2Bucket          string `env:"STORAGE_R2_BUCKET"`
	StorageR2Prefix          string `env:"STORAGE_R2_PREFIX"`
	StorageR2AccessKeyID     string `env:"STORAGE_R2_ACCESS_KEY_ID"`
	StorageR2SecretAccessKey string `env:"STORAGE_R2_SECRET_ACCESS_KEY"`

	AdminPasswordHash    string `env:"ADMIN_PASSWORD_HASH" envDefault:""`
	AdminPassword        string `env:"ADMIN_PASSWORD" envDefault:""`
	JWTSecret            string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer            string `env:"JWT_ISSUER" envDefault:"luvv-gateway"`
	JWTExpirationMinutes int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"720"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"luvv-gateway"`
	OTelSampleRate  float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1"`
}

// ParseConfig loads an optional .env file and then parses the process environment.
func ParseConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	Conf.ProviderOrder = normaliseList(Conf.ProviderOrder)
	return Conf, nil
}

// QuotaLocation resolves QUOTA_TIMEZONE, falling back to UTC.
func (c Config) QuotaLocation() *time.Location {
	name := strings.TrimSpace(c.QuotaTimezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logrus.WithError(err).WithField("timezone", name).Warn("invalid quota timezone, using UTC")
		return time.UTC
	}
	return loc
}

// DailyLimitFor returns the daily success ceiling for a provider driver. Zero means unlimited.
func (c Config) DailyLimitFor(driver string) int {
	key := strings.ToLower(strings.TrimSpace(driver))
	for name, limit := range c.ProviderDailyLimits {
		if strings.ToLower(strings.TrimSpace(name)) == key {
			return limit
		}
	}
	return c.ProviderDailyLimit
}

func normaliseList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
