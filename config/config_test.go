package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.False(t, cfg.External())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CHAINCODE_SERVER_ADDRESS", "0.0.0.0:9999")
	t.Setenv("CHAINCODE_ID", "registry:abc123")
	t.Setenv("CHAINCODE_LOG_SPEC", "counterresistance.registry=debug:info")
	t.Setenv("CHAINCODE_TLS_DISABLED", "false")
	t.Setenv("CHAINCODE_TLS_KEY", "/certs/key.pem")
	t.Setenv("CHAINCODE_TLS_CERT", "/certs/cert.pem")
	t.Setenv("CHAINCODE_CLIENT_CA_CERT", "/certs/ca.pem")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.True(t, cfg.External())
	require.Equal(t, "registry:abc123", cfg.ChaincodeID)
	require.Equal(t, "counterresistance.registry=debug:info", cfg.LogSpec)
	require.Equal(t, TLSConfig{
		Disabled:     false,
		KeyFile:      "/certs/key.pem",
		CertFile:     "/certs/cert.pem",
		ClientCAFile: "/certs/ca.pem",
	}, cfg.TLS)
}

func TestLoad_FileOverriddenByEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chaincode.yaml")
	content := `
server_address: "127.0.0.1:7052"
id: "from-file"
log_spec: "warning"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CHAINCODE_ID", "from-env")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7052", cfg.ServerAddress)
	require.Equal(t, "from-env", cfg.ChaincodeID)
	require.Equal(t, "warning", cfg.LogSpec)
	require.True(t, cfg.TLS.Disabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config file")
}

func TestValidate_ExternalNeedsID(t *testing.T) {
	cfg := Defaults()
	cfg.ServerAddress = "0.0.0.0:9999"
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "id is required")
}

func TestValidate_TLSNeedsKeyPair(t *testing.T) {
	cfg := Defaults()
	cfg.ServerAddress = "0.0.0.0:9999"
	cfg.ChaincodeID = "registry:abc123"
	cfg.TLS.Disabled = false
	cfg.TLS.CertFile = "/certs/cert.pem"
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "tls.key and tls.cert")
}

func TestValidate_EmptyLogSpec(t *testing.T) {
	cfg := Defaults()
	cfg.LogSpec = " "
	require.Error(t, cfg.Validate())
}

func TestTLSProperties(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}
	tlsCfg := TLSConfig{
		KeyFile:      write("key.pem", "KEY"),
		CertFile:     write("cert.pem", "CERT"),
		ClientCAFile: write("ca.pem", "CA"),
	}

	props, err := tlsCfg.Properties()
	require.NoError(t, err)
	require.False(t, props.Disabled)
	require.Equal(t, []byte("KEY"), props.Key)
	require.Equal(t, []byte("CERT"), props.Cert)
	require.Equal(t, []byte("CA"), props.ClientCACerts)
}

func TestTLSProperties_Disabled(t *testing.T) {
	props, err := TLSConfig{Disabled: true, KeyFile: "/does/not/exist"}.Properties()
	require.NoError(t, err)
	require.True(t, props.Disabled)
	require.Nil(t, props.Key)
}

func TestTLSProperties_MissingKey(t *testing.T) {
	_, err := TLSConfig{KeyFile: filepath.Join(t.TempDir(), "nope.pem")}.Properties()
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading TLS key")
}
