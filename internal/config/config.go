package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	CRDBDSN        string
	MongoURI       string
	RedisAddr      string
	RabbitURL      string
	JWTSecret      string
	StatusCacheTTL time.Duration
	OTLPEndpoint   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	listen := os.Getenv("LISTEN_ADDR")
	if listen == "" {
		listen = ":8080"
	}

	cacheTTL, _ := time.ParseDuration(os.Getenv("STATUS_CACHE_TTL"))
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Second
	}

	return &Config{
		ListenAddr:     listen,
		CRDBDSN:        os.Getenv("CRDB_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StatusCacheTTL: cacheTTL,
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
