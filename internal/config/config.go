package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port   int    `envconfig:"PORT" default:"8080"`
	DBPath string `envconfig:"DB_PATH" default:"gocord.db"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// APP_SECRET signs and verifies the JWTs used by both the REST
	// middleware and the socket handshake.
	AppSecret string `envconfig:"APP_SECRET" required:"true"`

	// Time budget for the link-preview fetch. Nothing else on the
	// message path carries a timeout.
	PreviewTimeout time.Duration `envconfig:"PREVIEW_TIMEOUT" default:"5s"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
