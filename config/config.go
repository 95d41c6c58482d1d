// Package config resolves the start-up configuration of the registry chaincode.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "CHAINCODE"

// Config holds the process settings. With an empty ServerAddress the
// chaincode is launched by the peer; otherwise it serves as an external
// chaincode service.
type Config struct {
	ServerAddress string    `mapstructure:"server_address"` // CHAINCODE_SERVER_ADDRESS, e.g. "0.0.0.0:9999"
	ChaincodeID   string    `mapstructure:"id"`             // CHAINCODE_ID, package id from the peer
	LogSpec       string    `mapstructure:"log_spec"`       // CHAINCODE_LOG_SPEC, flogging spec
	TLS           TLSConfig `mapstructure:"tls"`
}

// TLSConfig points at the PEM files of the external service.
type TLSConfig struct {
	Disabled     bool   `mapstructure:"disabled"`       // CHAINCODE_TLS_DISABLED
	KeyFile      string `mapstructure:"key"`            // CHAINCODE_TLS_KEY
	CertFile     string `mapstructure:"cert"`           // CHAINCODE_TLS_CERT
	ClientCAFile string `mapstructure:"client_ca_cert"` // CHAINCODE_CLIENT_CA_CERT
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		LogSpec: "info",
		TLS:     TLSConfig{Disabled: true},
	}
}

// Load resolves the configuration from v: flags already bound to v win over
// CHAINCODE_* environment variables, which win over configFile (optional
// YAML), which wins over Defaults.
func Load(v *viper.Viper, configFile string) (Config, error) {
	defaults := Defaults()
	v.SetDefault("server_address", defaults.ServerAddress)
	v.SetDefault("id", defaults.ChaincodeID)
	v.SetDefault("log_spec", defaults.LogSpec)
	v.SetDefault("tls.disabled", defaults.TLS.Disabled)
	v.SetDefault("tls.key", defaults.TLS.KeyFile)
	v.SetDefault("tls.cert", defaults.TLS.CertFile)
	v.SetDefault("tls.client_ca_cert", defaults.TLS.ClientCAFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The peer tooling names this one without the TLS segment.
	if err := v.BindEnv("tls.client_ca_cert", EnvPrefix+"_CLIENT_CA_CERT"); err != nil {
		return Config{}, fmt.Errorf("binding client CA variable: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// External reports whether the chaincode runs as an external service.
func (c Config) External() bool {
	return c.ServerAddress != ""
}

// Validate checks that an external service has what it needs to start.
func (c Config) Validate() error {
	if strings.TrimSpace(c.LogSpec) == "" {
		return errors.New("log_spec cannot be empty")
	}
	if !c.External() {
		return nil
	}
	if c.ChaincodeID == "" {
		return errors.New("id is required when server_address is set")
	}
	if !c.TLS.Disabled {
		if c.TLS.KeyFile == "" || c.TLS.CertFile == "" {
			return errors.New("tls.key and tls.cert are required unless tls.disabled is set")
		}
	}
	return nil
}

// Properties loads the PEM material into shim TLS properties.
func (t TLSConfig) Properties() (shim.TLSProperties, error) {
	if t.Disabled {
		return shim.TLSProperties{Disabled: true}, nil
	}
	key, err := os.ReadFile(t.KeyFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("reading TLS key: %w", err)
	}
	cert, err := os.ReadFile(t.CertFile)
	if err != nil {
		return shim.TLSProperties{}, fmt.Errorf("reading TLS certificate: %w", err)
	}
	props := shim.TLSProperties{Key: key, Cert: cert}
	if t.ClientCAFile != "" {
		ca, err := os.ReadFile(t.ClientCAFile)
		if err != nil {
			return shim.TLSProperties{}, fmt.Errorf("reading client CA certificate: %w", err)
		}
		props.ClientCACerts = ca
	}
	return props, nil
}
