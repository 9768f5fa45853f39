package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	MQTTBrokerURL      string        `mapstructure:"MQTT_BROKER_URL"`
	MQTTUsername       string        `mapstructure:"MQTT_USERNAME"`
	MQTTPassword       string        `mapstructure:"MQTT_PASSWORD"`
	MQTTPublishTimeout time.Duration `mapstructure:"MQTT_PUBLISH_TIMEOUT"`
	MQTTStateTimeout   time.Duration `mapstructure:"MQTT_STATE_TIMEOUT"`

	DeviceUIDPrefix    string `mapstructure:"DEVICE_UID_PREFIX"`
	DeviceIdentifiers  string `mapstructure:"DEVICE_IDENTIFIERS"`
	DeviceManufacturer string `mapstructure:"DEVICE_MANUFACTURER"`
	DeviceModel        string `mapstructure:"DEVICE_MODEL"`
	DeviceName         string `mapstructure:"DEVICE_NAME"`
	DeviceSWVersion    string `mapstructure:"DEVICE_SW_VERSION"`

	UDPPort  int `mapstructure:"UDP_PORT"`
	HTTPPort int `mapstructure:"PORT"`

	// DiscoveryFile optionally replaces the built-in discovery entities.
	DiscoveryFile string `mapstructure:"DISCOVERY_FILE"`
	// ForwardConfig optionally names a toml file for the raw packet relay.
	ForwardConfig string `mapstructure:"FORWARD_CONFIG"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]interface{}{
	"MQTT_BROKER_URL":      "",
	"MQTT_USERNAME":        "",
	"MQTT_PASSWORD":        "",
	"MQTT_PUBLISH_TIMEOUT": 2 * time.Second,
	"MQTT_STATE_TIMEOUT":   250 * time.Millisecond,
	"DEVICE_UID_PREFIX":    "",
	"DEVICE_IDENTIFIERS":   "",
	"DEVICE_MANUFACTURER":  "",
	"DEVICE_MODEL":         "",
	"DEVICE_NAME":          "",
	"DEVICE_SW_VERSION":    "",
	"UDP_PORT":             20127,
	"PORT":                 8080,
	"DISCOVERY_FILE":       "",
	"FORWARD_CONFIG":       "",
	"LOG_LEVEL":            "info",
}

// LoadConfig reads path/.env when present and lets environment variables
// override it.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	for key, value := range defaults {
		// every key needs a default for AutomaticEnv to reach Unmarshal
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	envFile := filepath.Join(path, ".env")
	if _, statErr := os.Stat(envFile); statErr == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err = v.ReadInConfig(); err != nil {
			err = errors.Wrapf(err, "unable to read %s", envFile)
			return
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		err = errors.Wrap(err, "unable to decode configuration")
	}
	return
}

func (config *Config) Validate() error {
	if config.MQTTBrokerURL == "" {
		return errors.New("MQTT_BROKER_URL is required")
	}
	// a discovery file may declare the device itself
	if config.DeviceName == "" && config.DiscoveryFile == "" {
		return errors.New("DEVICE_NAME is required")
	}
	if config.UDPPort <= 0 || config.UDPPort > 65535 {
		return errors.Errorf("invalid UDP_PORT %d", config.UDPPort)
	}
	if config.HTTPPort <= 0 || config.HTTPPort > 65535 {
		return errors.Errorf("invalid PORT %d", config.HTTPPort)
	}
	return nil
}
