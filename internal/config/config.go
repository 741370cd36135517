package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
	"gopkg.in/yaml.v3"
)

// Backends — поддерживаемые аппаратные бэкенды несущей.
var Backends = []string{"rpi", "periph", "serial", "null"}

// Config — конфигурация tc-tempus.
type Config struct {
	Transmitter TransmitterConfig `yaml:"transmitter"`
	Hardware    HardwareConfig    `yaml:"hardware"`
	// Reference — проверка системных часов по опорному источнику перед передачей (необязательно)
	Reference *ReferenceConfig `yaml:"reference"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	MQTT      MQTTConfig       `yaml:"mqtt"`
}

// TransmitterConfig — что и как долго передавать.
type TransmitterConfig struct {
	Standard string `yaml:"standard"` // DCF77, WWVB, JJY40, JJY60, MSF
	// Time — передаваемое местное время "YYYY-MM-DD HH:MM"; пусто = текущее
	Time              string `yaml:"time"`
	ZoneOffsetMinutes int    `yaml:"zone_offset_minutes"`
	// RunMinutes — сколько минут передавать; 0 = без ограничения
	RunMinutes       int  `yaml:"run_minutes"`
	DryRun           bool `yaml:"dry_run"`
	Verbose          bool `yaml:"verbose"`
	RealtimePriority int  `yaml:"realtime_priority"`
}

// HardwareConfig — выбор бэкенда и его параметры.
type HardwareConfig struct {
	Backend string       `yaml:"backend"` // rpi, periph, serial, null
	RPi     RPiConfig    `yaml:"rpi"`
	Periph  PeriphConfig `yaml:"periph"`
	Serial  SerialConfig `yaml:"serial"`
}

// RPiConfig — прямой доступ к регистрам BCM283x. Несущая всегда на GPIO4 (GPCLK0).
type RPiConfig struct {
	AttenuationGPIO int `yaml:"attenuation_gpio"`
}

// PeriphConfig — GPIO/PWM через periph.io (имена пинов в нотации gpioreg, например "GPIO18").
type PeriphConfig struct {
	CarrierPin            string `yaml:"carrier_pin"`
	AttenuationPin        string `yaml:"attenuation_pin"`
	AttenuationActiveHigh bool   `yaml:"attenuation_active_high"`
}

// SerialConfig — внешний генератор, управляемый линиями DTR (несущая) и RTS (ослабление).
type SerialConfig struct {
	Device       string  `yaml:"device"`
	OscillatorHz float64 `yaml:"oscillator_hz"`
}

// ReferenceConfig — как clock_sync в tc-sync: primary_clocks, secondary_clocks.
type ReferenceConfig struct {
	// Correct — сдвигать часы передатчика на измеренное смещение, системное время не трогается
	Correct         bool          `yaml:"correct"`
	MaxOffset       string        `yaml:"max_offset"` // порог предупреждения, например "50ms"
	PrimaryClocks   []ClockSource `yaml:"primary_clocks"`
	SecondaryClocks []ClockSource `yaml:"secondary_clocks"`
}

// ClockSource — один опорный источник (protocol: gnss, nmea, ntp).
type ClockSource struct {
	Protocol string `yaml:"protocol"`
	Disable  bool   `yaml:"disable"`
	// GNSS (UBX) / NMEA
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	// NTP
	IP string `yaml:"ip"`
	// NMEA (RMC): статическое смещение в наносекундах
	Offset int64 `yaml:"offset"`
}

// MetricsConfig — Prometheus endpoint; пусто = выключено.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// MQTTConfig — публикация статуса каждую минуту; пустой broker = выключено.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// Default возвращает конфиг по умолчанию
func Default() *Config {
	return &Config{
		Transmitter: TransmitterConfig{
			Standard:         "DCF77",
			RealtimePriority: 99,
		},
		Hardware: HardwareConfig{
			Backend: "rpi",
			RPi:     RPiConfig{AttenuationGPIO: 17},
			Periph: PeriphConfig{
				CarrierPin:     "GPIO4",
				AttenuationPin: "GPIO17",
			},
			Serial: SerialConfig{Device: "/dev/ttyUSB0"},
		},
		MQTT: MQTTConfig{
			Topic:    "tc-tempus/status",
			ClientID: "tc-tempus",
		},
	}
}

// Load читает конфиг из YAML
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML, подставляет значения по умолчанию и проверяет результат.
func Parse(data []byte) (*Config, error) {
	// Разбор поверх Default: отсутствующие ключи сохраняют значения по умолчанию,
	// явный ноль (attenuation_gpio: 0) остаётся нулём.
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Transmitter.Standard == "" {
		c.Transmitter.Standard = d.Transmitter.Standard
	}
	if c.Transmitter.RealtimePriority == 0 {
		c.Transmitter.RealtimePriority = d.Transmitter.RealtimePriority
	}
	c.Hardware.Backend = strings.ToLower(strings.TrimSpace(c.Hardware.Backend))
	if c.Hardware.Backend == "" {
		c.Hardware.Backend = d.Hardware.Backend
	}
	if c.Hardware.Periph.CarrierPin == "" {
		c.Hardware.Periph.CarrierPin = d.Hardware.Periph.CarrierPin
	}
	if c.Hardware.Periph.AttenuationPin == "" {
		c.Hardware.Periph.AttenuationPin = d.Hardware.Periph.AttenuationPin
	}
	if c.Hardware.Serial.Device == "" {
		c.Hardware.Serial.Device = d.Hardware.Serial.Device
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = d.MQTT.Topic
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = d.MQTT.ClientID
	}
}

// Validate проверяет значения, которые нельзя исправить подстановкой по умолчанию.
func (c *Config) Validate() error {
	if _, err := timecode.New(c.Transmitter.Standard, time.UTC); err != nil {
		return fmt.Errorf("transmitter.standard: %w", err)
	}
	if c.Transmitter.Time != "" {
		if _, err := ParseLocalTime(c.Transmitter.Time, time.UTC); err != nil {
			return fmt.Errorf("transmitter.time: %w", err)
		}
	}
	if p := c.Transmitter.RealtimePriority; p < 1 || p > 99 {
		return fmt.Errorf("transmitter.realtime_priority: %d not in 1..99", p)
	}
	if !isBackend(c.Hardware.Backend) {
		return fmt.Errorf("hardware.backend: unknown %q (one of %s)", c.Hardware.Backend, strings.Join(Backends, ", "))
	}
	if g := c.Hardware.RPi.AttenuationGPIO; c.Hardware.Backend == "rpi" && (g < 0 || g > 27 || g == 4) {
		return fmt.Errorf("hardware.rpi.attenuation_gpio: %d not in 0..27 or is the carrier pin 4", g)
	}
	if c.Hardware.Backend == "serial" && c.Hardware.Serial.OscillatorHz < 0 {
		return fmt.Errorf("hardware.serial.oscillator_hz: must not be negative")
	}
	if c.Reference != nil {
		if _, err := c.Reference.MaxOffsetDuration(); err != nil {
			return fmt.Errorf("reference.max_offset: %w", err)
		}
	}
	return nil
}

func isBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// MaxOffsetDuration разбирает max_offset; пусто = без порога (0).
func (r *ReferenceConfig) MaxOffsetDuration() (time.Duration, error) {
	if r == nil || r.MaxOffset == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.MaxOffset)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", r.MaxOffset)
	}
	return d, nil
}

// LocalTimeLayout — формат явного времени передачи (-t).
const LocalTimeLayout = "2006-01-02 15:04"

// ParseLocalTime разбирает "YYYY-MM-DD HH:MM" в зоне loc.
func ParseLocalTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(LocalTimeLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: expected YYYY-MM-DD HH:MM", s)
	}
	return t, nil
}
