package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rpattn/finclose/internal/db"
)

// Config is the full application configuration: HTTP server, optional audit
// database, close policy, and data directories.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Close    CloseConfig
	Data     DataConfig
}

type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// CloseConfig carries the close policy defaults; a request may override
// fail_on per run.
type CloseConfig struct {
	FailOn            string
	BaseCurrency      string
	AllowedCurrencies []string
}

type DataConfig struct {
	RawDir        string
	ReferenceDir  string
	CuratedDir    string
	MigrationsDir string
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Database: db.DefaultConfig(),
		Close: CloseConfig{
			FailOn:            "ERROR",
			BaseCurrency:      "GBP",
			AllowedCurrencies: []string{"GBP", "USD", "EUR"},
		},
		Data: DataConfig{
			RawDir:        "data/raw",
			ReferenceDir:  "data/reference",
			CuratedDir:    "data/curated",
			MigrationsDir: "migrations",
		},
	}
}

// Load reads config.yaml from configPath, with FINCLOSE_ environment variable
// overrides (FINCLOSE_DATABASE_HOST, FINCLOSE_CLOSE_FAIL_ON, ...). Missing
// file means defaults plus env.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("FINCLOSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys := []string{
		"server.addr",
		"server.allowed_origins",
		"database.enabled",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"close.fail_on",
		"close.base_currency",
		"close.allowed_currencies",
		"data.raw_dir",
		"data.reference_dir",
		"data.curated_dir",
		"data.migrations_dir",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("database.enabled") {
		cfg.Database.Enabled = v.GetBool("database.enabled")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("close.fail_on") {
		cfg.Close.FailOn = v.GetString("close.fail_on")
	}
	if v.IsSet("close.base_currency") {
		cfg.Close.BaseCurrency = v.GetString("close.base_currency")
	}
	if v.IsSet("close.allowed_currencies") {
		cfg.Close.AllowedCurrencies = v.GetStringSlice("close.allowed_currencies")
	}
	if v.IsSet("data.raw_dir") {
		cfg.Data.RawDir = v.GetString("data.raw_dir")
	}
	if v.IsSet("data.reference_dir") {
		cfg.Data.ReferenceDir = v.GetString("data.reference_dir")
	}
	if v.IsSet("data.curated_dir") {
		cfg.Data.CuratedDir = v.GetString("data.curated_dir")
	}
	if v.IsSet("data.migrations_dir") {
		cfg.Data.MigrationsDir = v.GetString("data.migrations_dir")
	}

	return cfg, nil
}
