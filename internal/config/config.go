package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	// ServiceToken guards the server-to-server earn endpoint hit by the
	// checkout flow after a paid order.
	ServiceToken string `env:"LOYALTY_SERVICE_TOKEN"`

	// Loyalty policy knobs. Thresholds are lifetime points.
	PointsPerRupee    int64 `env:"POINTS_PER_RUPEE" envDefault:"100"`
	MinRedeemPoints   int64 `env:"MIN_REDEEM_POINTS" envDefault:"100"`
	GoldThreshold     int64 `env:"GOLD_THRESHOLD" envDefault:"5000"`
	PlatinumThreshold int64 `env:"PLATINUM_THRESHOLD" envDefault:"20000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a config with policy defaults only, for starting the
// server before (or without) database credentials.
func Default() *Config {
	return &Config{
		Port:              "8080",
		DBPort:            "3306",
		PointsPerRupee:    100,
		MinRedeemPoints:   100,
		GoldThreshold:     5000,
		PlatinumThreshold: 20000,
	}
}
