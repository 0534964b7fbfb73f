package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"todoapp/internal/domain/errors"
	"todoapp/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	Port        int
	DBStr       string
	MigratePath string
	JWTSecret   string
	JWTExpires  time.Duration
}

const (
	defaultAddr        = "0.0.0.0"
	defaultPort        = 5000
	defaultDBStr       = "postgresql://shouldbeinVaultuser:shouldbeinVaultpassword@db:5432/todoapp?sslmode=disable"
	defaultMigratePath = "migrations"
	defaultJWTSecret   = "shouldbeinVaultjwtsecret"
	defaultJWTExpires  = 24 * time.Hour
)

var (
	addr        = flag.String("addr", defaultAddr, "адрес сервера (по умолчанию 0.0.0.0)")
	port        = flag.Int("port", defaultPort, "порт сервера (по умолчанию 5000)")
	dbstr       = flag.String("dbstr", defaultDBStr, "строка подключения к БД (по умолчанию стандартная)")
	migratePath = flag.String("migratepath", defaultMigratePath, "путь к папке с миграциями")
	jwtExpires  = flag.Duration("jwtexpires", defaultJWTExpires, "время жизни токена (по умолчанию 24h)")
	configFile  = flag.String("c", "", "путь к файлу конфигурации JSON")
	parsed      = false
)

// ReadConfig собирает конфигурацию в порядке: значения по умолчанию,
// JSON-файл, переменные окружения, явно заданные флаги.
func ReadConfig() *Config {
	if !parsed {
		flag.Parse()
		parsed = true
	}

	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("файл .env не найден, используем окружение процесса")
	}

	cfg := &Config{
		Addr:        defaultAddr,
		Port:        defaultPort,
		DBStr:       defaultDBStr,
		MigratePath: defaultMigratePath,
		JWTSecret:   defaultJWTSecret,
		JWTExpires:  defaultJWTExpires,
	}

	if jsonConfig := loadJSONConfig(); jsonConfig != nil {
		cfg = jsonConfig
	}

	cfg = applyEnvOverrides(cfg)
	cfg = applyFlagOverrides(cfg)

	return cfg
}

func loadJSONConfig() *Config {
	configPath := *configFile
	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}

	if configPath == "" {
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Log.Warnf("%s %s: %v", errors.ErrConfigFileReadFailed.Error(), configPath, err)
		return nil
	}

	var jsonConfig Config
	if err := json.Unmarshal(data, &jsonConfig); err != nil {
		logger.Log.Warnf("%s: %v", errors.ErrConfigParseFailed.Error(), err)
		return nil
	}

	logger.Log.Infof("JSON конфигурация загружена из: %s", configPath)
	return &jsonConfig
}

func applyEnvOverrides(cfg *Config) *Config {
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err != nil {
			logger.Log.Warnf("%s в переменной окружения PORT: %s", errors.ErrConfigInvalidFormat.Error(), port)
		} else if p < 1 || p > 65535 {
			logger.Log.Warnf("%s - порт должен быть от 1 до 65535: %d", errors.ErrConfigInvalidFormat.Error(), p)
		} else {
			cfg.Port = p
		}
	}
	if dbStr := os.Getenv("DB_STR"); dbStr != "" {
		cfg.DBStr = dbStr
	}
	if migratePath := os.Getenv("MIGRATE_PATH"); migratePath != "" {
		cfg.MigratePath = migratePath
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if expires := os.Getenv("JWT_EXPIRES_IN"); expires != "" {
		if d, err := time.ParseDuration(expires); err != nil {
			logger.Log.Warnf("%s в переменной окружения JWT_EXPIRES_IN: %s", errors.ErrConfigInvalidFormat.Error(), expires)
		} else {
			cfg.JWTExpires = d
		}
	}

	if cfg.DBStr == defaultDBStr {
		dbUser := os.Getenv("DB_USER")
		dbPassword := os.Getenv("DB_PASSWORD")
		dbName := os.Getenv("DB_NAME")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		if dbUser != "" && dbPassword != "" && dbName != "" && dbHost != "" && dbPort != "" {
			cfg.DBStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, dbHost, dbPort, dbName)
		}
	}

	return cfg
}

// applyFlagOverrides применяет только явно переданные флаги, чтобы не
// затирать значения из окружения значениями по умолчанию.
func applyFlagOverrides(cfg *Config) *Config {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "port":
			cfg.Port = *port
		case "dbstr":
			cfg.DBStr = *dbstr
		case "migratepath":
			cfg.MigratePath = *migratePath
		case "jwtexpires":
			cfg.JWTExpires = *jwtExpires
		}
	})

	return cfg
}
