package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Config конфигурация сервиса, загружается из config.toml
type Config struct {
	Server         ServerConfig         `toml:"server"`
	Database       DatabaseConfig       `toml:"database"`
	Logs           LogsConfig           `toml:"logs"`
	Metrics        MetricsConfig        `toml:"metrics"`
	Auth           AuthConfig           `toml:"auth"`
	PaymentGateway PaymentGatewayConfig `toml:"payment_gateway"`
	Booking        BookingConfig        `toml:"booking"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN возвращает строку подключения к PostgreSQL
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки Prometheus-метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// AuthConfig настройки аутентификации админских роутов
type AuthConfig struct {
	AdminToken string `toml:"admin_token"`
}

// PaymentGatewayConfig настройки клиента платежного шлюза
type PaymentGatewayConfig struct {
	URL         string `toml:"url"`
	APIKey      string `toml:"api_key"`
	Timeout     int    `toml:"timeout"` // секунды
	CallbackURL string `toml:"callback_url"`
}

// BookingConfig бизнес-параметры бронирования и workflow
// Числовые политики собраны здесь, а не разбросаны по обработчикам
type BookingConfig struct {
	ReservationTTLMinutes int              `toml:"reservation_ttl_minutes"`
	ContractSigningDays   int              `toml:"contract_signing_days"`
	InvoiceDueDays        int              `toml:"invoice_due_days"`
	UpfrontPercent        int              `toml:"upfront_percent"`
	RefundCutoffHours     int              `toml:"refund_cutoff_hours"`
	OpenTime              string           `toml:"open_time"`  // HH:MM
	CloseTime             string           `toml:"close_time"` // HH:MM
	SlotDurationMinutes   int              `toml:"slot_duration_minutes"`
	ClosedWeekdays        []string         `toml:"closed_weekdays"` // например ["Sunday"]
}

// Load загружает конфигурацию из TOML-файла и подставляет значения по умолчанию
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Booking.ReservationTTLMinutes <= 0 {
		cfg.Booking.ReservationTTLMinutes = domain.DefaultReservationTTLMinutes
	}
	if cfg.Booking.ContractSigningDays <= 0 {
		cfg.Booking.ContractSigningDays = domain.DefaultContractSigningDays
	}
	if cfg.Booking.InvoiceDueDays <= 0 {
		cfg.Booking.InvoiceDueDays = domain.DefaultInvoiceDueDays
	}
	if cfg.Booking.UpfrontPercent <= 0 {
		cfg.Booking.UpfrontPercent = domain.DefaultUpfrontPercent
	}
	if cfg.Booking.RefundCutoffHours <= 0 {
		cfg.Booking.RefundCutoffHours = domain.DefaultRefundCutoffHours
	}
	if cfg.Booking.SlotDurationMinutes <= 0 {
		cfg.Booking.SlotDurationMinutes = 60
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Logs.Level == "" {
		cfg.Logs.Level = "info"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 {
		return fmt.Errorf("config: server.http_port is required")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		return fmt.Errorf("config: database.host and database.dbname are required")
	}
	if cfg.Auth.AdminToken == "" {
		return fmt.Errorf("config: auth.admin_token is required")
	}
	if cfg.Booking.UpfrontPercent > domain.MaxUpfrontPercent {
		return fmt.Errorf("config: booking.upfront_percent must be <= %d", domain.MaxUpfrontPercent)
	}
	return nil
}
