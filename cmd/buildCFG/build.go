package buildCFG

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
)

type ServerConfig struct {
	Port string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type AuthConfig struct {
	JWTSecret string
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type StorageConfig struct {
	Dir     string
	BaseURL string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildMongoConfig(cfg *config.Config, log *zerolog.Logger) (MongoConfig, error) {
	uri := cfg.GetString("mongo.uri")
	if uri == "" {
		return MongoConfig{}, fmt.Errorf("mongo.uri is required")
	}
	db := cfg.GetString("mongo.database")
	if db == "" {
		db = "felicity"
		log.Warn().Msg("mongo.database not set, defaulting to felicity")
	}
	return MongoConfig{URI: uri, Database: db}, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	url := cfg.GetString("rabbit.url")
	if url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required")
	}
	exchange := cfg.GetString("rabbit.exchange")
	if exchange == "" {
		exchange = "notifications"
		log.Warn().Msg("rabbit.exchange not set, defaulting to notifications")
	}
	queue := cfg.GetString("rabbit.queue")
	if queue == "" {
		queue = "ticket_emails"
		log.Warn().Msg("rabbit.queue not set, defaulting to ticket_emails")
	}
	return RabbitConfig{Url: url, Exchange: exchange, Queue: queue}, nil
}

func BuildAuthConfig(cfg *config.Config) (AuthConfig, error) {
	secret := cfg.GetString("auth.jwt_secret")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("auth.jwt_secret is required")
	}
	return AuthConfig{JWTSecret: secret}, nil
}

func BuildSMTPConfig(cfg *config.Config) (SMTPConfig, error) {
	host := cfg.GetString("smtp.host")
	if host == "" {
		return SMTPConfig{}, fmt.Errorf("smtp.host is required")
	}
	port := cfg.GetString("smtp.port")
	if port == "" {
		port = "587"
	}
	return SMTPConfig{
		Host:     host,
		Port:     port,
		User:     cfg.GetString("smtp.user"),
		Password: cfg.GetString("smtp.password"),
	}, nil
}

func BuildStorageConfig(cfg *config.Config, log *zerolog.Logger) StorageConfig {
	dir := cfg.GetString("storage.dir")
	if dir == "" {
		dir = "./uploads"
		log.Warn().Msg("storage.dir not set, defaulting to ./uploads")
	}
	baseURL := cfg.GetString("storage.base_url")
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return StorageConfig{Dir: dir, BaseURL: baseURL}
}
