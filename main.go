package main

import (
	"fmt"
	"os"

	"counterresistance/config"
	"counterresistance/contract"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric/common/flogging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger = flogging.MustGetLogger("counterresistance.main")

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:          "registry-chaincode",
	Short:        "Contribution and dataset registries as Hyperledger Fabric chaincode",
	Version:      contract.ChaincodeVersion,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "optional YAML config file")
	rootCmd.Flags().String("server-address", "", "serve as an external chaincode on this address")
	rootCmd.Flags().String("chaincode-id", "", "chaincode package id (external service only)")
	rootCmd.Flags().String("log-spec", "", "flogging spec, e.g. info or counterresistance.ledger=debug:info")

	cobra.CheckErr(v.BindPFlag("server_address", rootCmd.Flags().Lookup("server-address")))
	cobra.CheckErr(v.BindPFlag("id", rootCmd.Flags().Lookup("chaincode-id")))
	cobra.CheckErr(v.BindPFlag("log_spec", rootCmd.Flags().Lookup("log-spec")))
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := flogging.Global.ActivateSpec(cfg.LogSpec); err != nil {
		return fmt.Errorf("invalid log spec '%s': %w", cfg.LogSpec, err)
	}

	cc, err := contract.NewChaincode()
	if err != nil {
		return err
	}

	if !cfg.External() {
		logger.Info("Starting registry chaincode under the peer")
		return cc.Start()
	}

	tlsProps, err := cfg.TLS.Properties()
	if err != nil {
		return err
	}
	server := &shim.ChaincodeServer{
		CCID:     cfg.ChaincodeID,
		Address:  cfg.ServerAddress,
		CC:       cc,
		TLSProps: tlsProps,
	}
	logger.Infof("Starting registry chaincode service '%s' on %s (tls disabled: %t)", cfg.ChaincodeID, cfg.ServerAddress, tlsProps.Disabled)
	return server.Start()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
