package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ServiceBus ServiceBusConfig
	SMTP       SMTPConfig
	NewRelic   NewRelicConfig
	Thresholds ThresholdConfig
	Fanout     FanoutConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port int
	Mode string // debug, release, test
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServiceBusConfig holds the Azure Service Bus configuration for push alerts
type ServiceBusConfig struct {
	ConnectionString string
	QueueName        string
}

// SMTPConfig holds the outbound email configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// ThresholdConfig holds the telemetry classification thresholds and the
// device liveness timeout. Injected into the service at construction so
// there is no process-wide mutable configuration.
type ThresholdConfig struct {
	ProximityWarningCm float64
	ProximityAlertCm   float64
	LowBatteryPct      int
	CriticalBatteryPct int
	HeartbeatTimeout   time.Duration
}

// FanoutConfig holds the notification fan-out tuning knobs
type FanoutConfig struct {
	MaxConcurrent       int
	PerRecipientTimeout time.Duration
	FollowUpInterval    time.Duration
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	// Set defaults for configuration
	setDefaults()

	// Use config file from the flag if provided
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common directories with name "config"
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/guardian-monitor")
		viper.SetConfigName("config")
	}

	// Set environment variable prefix for config overrides
	viper.SetEnvPrefix("GUARDIAN")

	// Enable automatic environment variable binding
	// For example, GUARDIAN_SERVER_PORT will override server.port
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, using defaults and environment variables
			fmt.Println("No config file found, using defaults and environment variables")
		} else {
			// Config file was found but another error occurred
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8094)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "monitor")
	viper.SetDefault("database.password", "monitor")
	viper.SetDefault("database.dbname", "monitor_service_db")
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Service Bus defaults - no default connection string for security
	viper.SetDefault("servicebus.queuename", "caregiver-alerts")

	// SMTP defaults - credentials always come from the environment
	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.fromname", "Guardian Monitor")
	viper.SetDefault("smtp.fromemail", "alerts@guardian.local")

	// New Relic defaults
	viper.SetDefault("newrelic.appname", "Monitor Service Local")
	viper.SetDefault("newrelic.enabled", false)

	// Telemetry threshold defaults, distances in centimeters
	viper.SetDefault("thresholds.proximity_warning_cm", 50.0)
	viper.SetDefault("thresholds.proximity_alert_cm", 30.0)
	viper.SetDefault("thresholds.low_battery_pct", 20)
	viper.SetDefault("thresholds.critical_battery_pct", 10)
	viper.SetDefault("thresholds.heartbeat_timeout", "5m")

	// Fan-out defaults
	viper.SetDefault("fanout.max_concurrent", 8)
	viper.SetDefault("fanout.per_recipient_timeout", "5s")
	viper.SetDefault("fanout.follow_up_interval", "15m")
}

// Load loads the configuration
func Load() (*Config, error) {
	// Server
	serverConfig := ServerConfig{
		Port: viper.GetInt("server.port"),
		Mode: viper.GetString("server.mode"),
	}

	// Database
	dbConfig := DatabaseConfig{
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
		DBName:   viper.GetString("database.dbname"),
		SSLMode:  viper.GetString("database.sslmode"),
	}

	// Redis
	redisConfig := RedisConfig{
		Host:     viper.GetString("redis.host"),
		Port:     viper.GetInt("redis.port"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}

	// Service Bus
	serviceBusConfig := ServiceBusConfig{
		ConnectionString: viper.GetString("servicebus.connectionstring"),
		QueueName:        viper.GetString("servicebus.queuename"),
	}

	// SMTP
	smtpConfig := SMTPConfig{
		Host:      viper.GetString("smtp.host"),
		Port:      viper.GetInt("smtp.port"),
		Username:  viper.GetString("smtp.username"),
		Password:  viper.GetString("smtp.password"),
		FromName:  viper.GetString("smtp.fromname"),
		FromEmail: viper.GetString("smtp.fromemail"),
	}

	// New Relic
	newRelicConfig := NewRelicConfig{
		AppName:    viper.GetString("newrelic.appname"),
		LicenseKey: viper.GetString("newrelic.licensekey"),
		Enabled:    viper.GetBool("newrelic.enabled"),
	}

	// Thresholds
	thresholdConfig := ThresholdConfig{
		ProximityWarningCm: viper.GetFloat64("thresholds.proximity_warning_cm"),
		ProximityAlertCm:   viper.GetFloat64("thresholds.proximity_alert_cm"),
		LowBatteryPct:      viper.GetInt("thresholds.low_battery_pct"),
		CriticalBatteryPct: viper.GetInt("thresholds.critical_battery_pct"),
		HeartbeatTimeout:   viper.GetDuration("thresholds.heartbeat_timeout"),
	}
	if err := thresholdConfig.Validate(); err != nil {
		return nil, err
	}

	// Fan-out
	fanoutConfig := FanoutConfig{
		MaxConcurrent:       viper.GetInt("fanout.max_concurrent"),
		PerRecipientTimeout: viper.GetDuration("fanout.per_recipient_timeout"),
		FollowUpInterval:    viper.GetDuration("fanout.follow_up_interval"),
	}

	return &Config{
		Server:     serverConfig,
		Database:   dbConfig,
		Redis:      redisConfig,
		ServiceBus: serviceBusConfig,
		SMTP:       smtpConfig,
		NewRelic:   newRelicConfig,
		Thresholds: thresholdConfig,
		Fanout:     fanoutConfig,
	}, nil
}

// Validate checks the threshold configuration for contradictions
func (c ThresholdConfig) Validate() error {
	if c.ProximityAlertCm < 0 || c.ProximityWarningCm < 0 {
		return fmt.Errorf("proximity thresholds must be non-negative")
	}
	if c.ProximityAlertCm > c.ProximityWarningCm {
		return fmt.Errorf("proximity alert threshold %.1fcm exceeds warning threshold %.1fcm", c.ProximityAlertCm, c.ProximityWarningCm)
	}
	if c.CriticalBatteryPct < 0 || c.LowBatteryPct > 100 {
		return fmt.Errorf("battery thresholds must be within 0-100")
	}
	if c.CriticalBatteryPct > c.LowBatteryPct {
		return fmt.Errorf("critical battery threshold %d%% exceeds low battery threshold %d%%", c.CriticalBatteryPct, c.LowBatteryPct)
	}
	if c.HeartbeatTimeout <= 0 {
		return fmt.Errorf("heartbeat timeout must be positive")
	}
	return nil
}
