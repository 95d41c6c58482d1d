package main

import (
	"testing"

	"counterresistance/config"

	"github.com/stretchr/testify/require"
)

func TestFlagsBoundToConfig(t *testing.T) {
	flags := rootCmd.Flags()
	require.NoError(t, flags.Set("server-address", "0.0.0.0:9999"))
	require.NoError(t, flags.Set("chaincode-id", "registry:abc"))
	require.NoError(t, flags.Set("log-spec", "debug"))

	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9999", cfg.ServerAddress)
	require.Equal(t, "registry:abc", cfg.ChaincodeID)
	require.Equal(t, "debug", cfg.LogSpec)
	require.True(t, cfg.External())
}
