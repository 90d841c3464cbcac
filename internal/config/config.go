package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort          string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	JWTPrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`
	TokenTTLHours     int    `env:"TOKEN_TTL_HOURS" envDefault:"168"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"10"`
	AccountDeleteMode string `env:"ACCOUNT_DELETE_MODE" envDefault:"deactivate"`
	LoginRateWindow   int    `env:"LOGIN_RATE_WINDOW_SECONDS" envDefault:"60"`
	LoginRateMax      int    `env:"LOGIN_RATE_MAX" envDefault:"10"`
	RedisAddr         string `env:"REDIS_ADDR"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisDB           int    `env:"REDIS_DB" envDefault:"0"`
	DebugErrors       bool   `env:"DEBUG_ERRORS" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
