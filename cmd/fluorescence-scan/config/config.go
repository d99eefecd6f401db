package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	keyPort                    = "PORT"
	keyDatabaseURL             = "DATABASE_URL"
	keyDatabaseMaxOpenConns    = "DATABASE_MAX_OPEN_CONNS"
	keyDatabaseMaxIdleConns    = "DATABASE_MAX_IDLE_CONNS"
	keyDatabaseConnMaxLifetime = "DATABASE_CONN_MAX_LIFETIME"
	keyLogLevel                = "LOG_LEVEL"
	keyLogDevelopment          = "LOG_DEVELOPMENT"
	keyOTELCollectorURL        = "OTEL_COLLECTOR_URL"
	keyRedisAddr               = "REDIS_ADDR"
	keyRedisPassword           = "REDIS_PASSWORD"
	keyCacheTTL                = "CACHE_TTL"
	keyS3Bucket                = "S3_BUCKET"
	keyS3EndpointURL           = "S3_ENDPOINT_URL"
	keyS3AccessKeyID           = "S3_ACCESS_KEY_ID"
	keyS3SecretAccessKey       = "S3_SECRET_ACCESS_KEY"
	keyS3ForcePathStyle        = "S3_FORCE_PATH_STYLE"
	keyS3Region                = "S3_REGION"
	keyS3PresignExpiry         = "S3_PRESIGN_EXPIRY"
	keyHTTPReadTimeout         = "HTTP_READ_TIMEOUT"
	keyHTTPWriteTimeout        = "HTTP_WRITE_TIMEOUT"
	keyRequestTimeout          = "REQUEST_TIMEOUT"
	keyMaxParallelism          = "MAX_PARALLELISM"
	keyMaxDepth                = "MAX_DEPTH"
)

var global *config

func init() {
	c := &config{
		viper: viper.New(),
	}
	c.viper.AutomaticEnv()
	c.loadDefaults()
	global = c
}

type config struct {
	viper *viper.Viper
}

func (c *config) loadDefaults() {
	c.viper.SetDefault(keyPort, 80)
	c.viper.SetDefault(keyDatabaseURL, "")
	c.viper.SetDefault(keyDatabaseMaxOpenConns, 10)
	c.viper.SetDefault(keyDatabaseMaxIdleConns, 5)
	c.viper.SetDefault(keyDatabaseConnMaxLifetime, 30*time.Minute)
	c.viper.SetDefault(keyLogLevel, "info")
	c.viper.SetDefault(keyLogDevelopment, false)
	c.viper.SetDefault(keyOTELCollectorURL, "")
	c.viper.SetDefault(keyRedisAddr, "")
	c.viper.SetDefault(keyRedisPassword, "")
	c.viper.SetDefault(keyCacheTTL, 5*time.Minute)
	c.viper.SetDefault(keyS3Bucket, "")
	c.viper.SetDefault(keyS3EndpointURL, "")
	c.viper.SetDefault(keyS3AccessKeyID, "")
	c.viper.SetDefault(keyS3SecretAccessKey, "")
	c.viper.SetDefault(keyS3ForcePathStyle, false)
	c.viper.SetDefault(keyS3Region, "us-east-1")
	c.viper.SetDefault(keyS3PresignExpiry, 15*time.Minute)
	c.viper.SetDefault(keyHTTPReadTimeout, 10*time.Second)
	c.viper.SetDefault(keyHTTPWriteTimeout, 30*time.Second)
	c.viper.SetDefault(keyRequestTimeout, 20*time.Second)
	c.viper.SetDefault(keyMaxParallelism, 10)
	c.viper.SetDefault(keyMaxDepth, 12)
}

// flags maps command-line flags onto the configuration keys they override.
var flags = map[string]string{
	"port":         keyPort,
	"database-url": keyDatabaseURL,
	"log-level":    keyLogLevel,
	"redis-addr":   keyRedisAddr,
}

// BindFlags lets the flags of fs that are named after configuration keys
// override the environment.
func BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flags {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := global.viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("while binding flag %s: %w", name, err)
		}
	}
	return nil
}

func Port() int {
	return global.viper.GetInt(keyPort)
}

func DatabaseURL() string {
	return global.viper.GetString(keyDatabaseURL)
}

func DatabaseMaxOpenConns() int {
	return global.viper.GetInt(keyDatabaseMaxOpenConns)
}

func DatabaseMaxIdleConns() int {
	return global.viper.GetInt(keyDatabaseMaxIdleConns)
}

func DatabaseConnMaxLifetime() time.Duration {
	return global.viper.GetDuration(keyDatabaseConnMaxLifetime)
}

func LogLevel() string {
	return global.viper.GetString(keyLogLevel)
}

func LogDevelopment() bool {
	return global.viper.GetBool(keyLogDevelopment)
}

func OTELCollectorURL() string {
	return global.viper.GetString(keyOTELCollectorURL)
}

// RedisAddr is the address of the redis cache. The cache is disabled when
// empty.
func RedisAddr() string {
	return global.viper.GetString(keyRedisAddr)
}

func RedisPassword() string {
	return global.viper.GetString(keyRedisPassword)
}

func CacheTTL() time.Duration {
	return global.viper.GetDuration(keyCacheTTL)
}

// S3Bucket is the bucket scan files are served from. Presigned URLs are
// disabled when empty.
func S3Bucket() string {
	return global.viper.GetString(keyS3Bucket)
}

func S3EndpointURL() string {
	return global.viper.GetString(keyS3EndpointURL)
}

func S3AccessKeyID() string {
	return global.viper.GetString(keyS3AccessKeyID)
}

func S3SecretAccessKey() string {
	return global.viper.GetString(keyS3SecretAccessKey)
}

func S3ForcePathStyle() bool {
	return global.viper.GetBool(keyS3ForcePathStyle)
}

func S3Region() string {
	return global.viper.GetString(keyS3Region)
}

func S3PresignExpiry() time.Duration {
	return global.viper.GetDuration(keyS3PresignExpiry)
}

func HTTPReadTimeout() time.Duration {
	return global.viper.GetDuration(keyHTTPReadTimeout)
}

func HTTPWriteTimeout() time.Duration {
	return global.viper.GetDuration(keyHTTPWriteTimeout)
}

func RequestTimeout() time.Duration {
	return global.viper.GetDuration(keyRequestTimeout)
}

func MaxParallelism() int {
	return global.viper.GetInt(keyMaxParallelism)
}

func MaxDepth() int {
	return global.viper.GetInt(keyMaxDepth)
}
