package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port             int           `envconfig:"PORT" default:"8080"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL      string        `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret        string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL           time.Duration `envconfig:"JWT_TTL" default:"168h"`
	BcryptCost       int           `envconfig:"BCRYPT_COST" default:"12"`
	Version          string        `envconfig:"VERSION" default:"dev"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	AccessPolicyFile string        `envconfig:"ACCESS_POLICY_FILE" default:""`
	AutoMigrate      bool          `envconfig:"AUTO_MIGRATE" default:"true"`

	// Bootstrap admin is created only when both username and password are set
	// and the users table is empty.
	BootstrapAdminUsername string `envconfig:"BOOTSTRAP_ADMIN_USERNAME" default:""`
	BootstrapAdminEmail    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL" default:""`
	BootstrapAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD" default:""`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
