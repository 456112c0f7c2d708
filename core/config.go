package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// MB is one mebibyte, used for the upload ceilings.
	MB = int64(1 << 20)
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		WorkDir          string
		RollbarToken     string
		SendgridAPIKey   string
		DefaultFromEmail mail.Address

		Database DatabaseConfig
		Server   ServerConfig
		Storage  StorageConfig
		Redis    RedisConfig
		Sync     SyncConfig
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	StorageConfig struct {
		Backend         string // local | gcs
		LocalDir        string
		PublicBaseURL   string
		VideoBucket     string
		DocumentBucket  string
		VideoCDN        string
		DocumentCDN     string
		MaxVideoSize    int64
		MaxDocumentSize int64
	}

	RedisConfig struct {
		Address  string // empty: in-process locking only
		Password string
		DB       int
		LockTTL  time.Duration
	}

	SyncConfig struct {
		ToastDuration time.Duration
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// NewConfig loads the configuration from defaults, the optional config/.env.<env> file and the environment.
// Environment variables are prefixed with the upper-cased env name, eg. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "La Jungla")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "jungla-dev-3k$9+wq!x2l0v#mf7c_t8a^zd")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromName", "La Jungla Academy")
	v.SetDefault("defaultFromEmail", "noreply@lajunglaworkout.com")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "jungla")
	v.SetDefault("database.user", "jungla")
	v.SetDefault("database.password", "jungla")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localDir", filepath.Join(os.TempDir(), "jungla-uploads"))
	v.SetDefault("storage.publicBaseURL", "")
	v.SetDefault("storage.videoBucket", "academy-videos")
	v.SetDefault("storage.documentBucket", "academy-documents")
	v.SetDefault("storage.videoCDN", "")
	v.SetDefault("storage.documentCDN", "")
	v.SetDefault("storage.maxVideoSize", 500*MB)
	v.SetDefault("storage.maxDocumentSize", 50*MB)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lockTTL", 30*time.Second)

	v.SetDefault("sync.toastDuration", 3*time.Second)

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppName:        v.GetString("appName"),
		Env:            env,
		Build:          v.GetString("build"),
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		SecretKey:      v.GetString("secretKey"),
		WorkDir:        wd,
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridAPIKey: v.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Storage: StorageConfig{
			Backend:         v.GetString("storage.backend"),
			LocalDir:        v.GetString("storage.localDir"),
			PublicBaseURL:   v.GetString("storage.publicBaseURL"),
			VideoBucket:     v.GetString("storage.videoBucket"),
			DocumentBucket:  v.GetString("storage.documentBucket"),
			VideoCDN:        v.GetString("storage.videoCDN"),
			DocumentCDN:     v.GetString("storage.documentCDN"),
			MaxVideoSize:    v.GetInt64("storage.maxVideoSize"),
			MaxDocumentSize: v.GetInt64("storage.maxDocumentSize"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			LockTTL:  v.GetDuration("redis.lockTTL"),
		},
		Sync: SyncConfig{
			ToastDuration: v.GetDuration("sync.toastDuration"),
		},
	}
}

// UploadLimits returns the configured upload ceilings per asset kind.
func (conf *Config) UploadLimits() UploadLimits {
	return UploadLimits{Video: conf.Storage.MaxVideoSize, Document: conf.Storage.MaxDocumentSize}
}
