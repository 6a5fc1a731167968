package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, thresholds, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	CORS     CORSConfig
	Log      LogConfig
	JWT      JWTConfig
	Booking  BookingConfig
	Monitor  MonitorConfig
	Geofence GeofenceConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type KafkaConfig struct {
	Brokers    []string `envconfig:"KAFKA_BROKERS" default:""`
	AlertTopic string   `envconfig:"KAFKA_ALERT_TOPIC" default:"staff-alerts"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Brokers[0] != ""
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

type BookingConfig struct {
	// Window before start time in which gate pre-verification is accepted.
	GateVerifyWindow time.Duration `envconfig:"GATE_VERIFY_WINDOW" default:"1h"`
	// Step and caps for conflict alternative scanning.
	AlternativeStep time.Duration `envconfig:"ALTERNATIVE_STEP" default:"30m"`
	MaxAlternatives int           `envconfig:"MAX_ALTERNATIVES" default:"3"`
	// Cron spec for expiring confirmed reservations past their end time.
	ExpirySweepSpec string `envconfig:"EXPIRY_SWEEP_SPEC" default:"@every 5m"`
}

type MonitorConfig struct {
	ScanSpec         string        `envconfig:"MONITOR_SCAN_SPEC" default:"@every 15m"`
	WarningAfter     time.Duration `envconfig:"MONITOR_WARNING_AFTER" default:"20h"`
	CriticalAfter    time.Duration `envconfig:"MONITOR_CRITICAL_AFTER" default:"24h"`
	WarningCooldown  time.Duration `envconfig:"MONITOR_WARNING_COOLDOWN" default:"6h"`
	CriticalCooldown time.Duration `envconfig:"MONITOR_CRITICAL_COOLDOWN" default:"12h"`
	MaxConcurrency   int           `envconfig:"MONITOR_MAX_CONCURRENCY" default:"8"`
}

type NotifyConfig struct {
	FromEmail       string `envconfig:"NOTIFY_FROM_EMAIL" default:"noreply@parkgate.local"`
	FromName        string `envconfig:"NOTIFY_FROM_NAME" default:"ParkGate"`
	StaffEmail      string `envconfig:"NOTIFY_STAFF_EMAIL" default:""`
	SendGridKey     string `envconfig:"SENDGRID_API_KEY" default:""`
	TwilioSID       string `envconfig:"TWILIO_ACCOUNT_SID" default:""`
	TwilioToken     string `envconfig:"TWILIO_AUTH_TOKEN" default:""`
	TwilioFromPhone string `envconfig:"TWILIO_FROM_NUMBER" default:""`
}

type GeofenceConfig struct {
	Facilities FacilityList `envconfig:"FACILITIES" default:"[{\"name\":\"Main Facility\",\"lat\":12.9716,\"lon\":77.5946,\"radius_m\":200}]"`
}

type Facility struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM float64 `json:"radius_m"`
}

// FacilityList implements envconfig.Decoder so facilities can be supplied
// as a JSON array in a single environment variable.
type FacilityList []Facility

func (f *FacilityList) Decode(value string) error {
	var facilities []Facility
	if err := json.Unmarshal([]byte(value), &facilities); err != nil {
		return fmt.Errorf("failed to parse FACILITIES: %w", err)
	}
	*f = facilities
	return nil
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Booking: BookingConfig{
			GateVerifyWindow: time.Hour,
			AlternativeStep:  30 * time.Minute,
			MaxAlternatives:  3,
			ExpirySweepSpec:  "@every 5m",
		},
		Monitor: MonitorConfig{
			ScanSpec:         "@every 15m",
			WarningAfter:     20 * time.Hour,
			CriticalAfter:    24 * time.Hour,
			WarningCooldown:  6 * time.Hour,
			CriticalCooldown: 12 * time.Hour,
			MaxConcurrency:   4,
		},
		Geofence: GeofenceConfig{
			Facilities: FacilityList{
				{Name: "Main Facility", Lat: 12.9716, Lon: 77.5946, RadiusM: 200},
			},
		},
	}
}
