// Package config reads the daemon configuration from a TOML file.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds everything the daemon needs to talk to the modem and to poll
// the outbox.
type Config struct {
	Modem ModemConfig
	Queue QueueConfig
}

// ModemConfig describes the modem connection.
type ModemConfig struct {
	// Device is the serial device path, e.g. /dev/ttyUSB0. Empty means
	// autodetect.
	Device string
	// BaudRate of the serial connection.
	BaudRate uint
	// ResponseTimeout bounds every single command/response exchange.
	ResponseTimeout duration
	// InternationalFallback treats destination numbers without a leading +
	// as international nonetheless.
	InternationalFallback bool
}

// QueueConfig describes the outbox polling.
type QueueConfig struct {
	// PollInterval between two checks for pending messages.
	PollInterval duration
}

// duration lets TOML carry values like "15s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Default returns the configuration defaults: 115200 baud, 15 seconds
// response timeout, 5 seconds poll interval.
func Default() Config {
	return Config{
		Modem: ModemConfig{
			BaudRate:        115200,
			ResponseTimeout: duration(15 * time.Second),
		},
		Queue: QueueConfig{
			PollInterval: duration(5 * time.Second),
		},
	}
}

// Load reads the configuration from the given TOML file on top of the defaults.
func Load(filename string) (Config, error) {
	result := Default()
	if _, err := toml.DecodeFile(filename, &result); err != nil {
		return Config{}, fmt.Errorf("cannot read configuration %s: %w", filename, err)
	}
	if result.Modem.BaudRate == 0 {
		return Config{}, fmt.Errorf("modem.baudrate must not be 0")
	}
	if result.Modem.ResponseTimeout <= 0 {
		return Config{}, fmt.Errorf("modem.responsetimeout must be positive")
	}
	return result, nil
}

// ResponseTimeout returns the modem response timeout as time.Duration.
func (c Config) ResponseTimeout() time.Duration {
	return time.Duration(c.Modem.ResponseTimeout)
}

// PollInterval returns the outbox poll interval as time.Duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Queue.PollInterval)
}
