package main

import (
	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "storefront",
		Short: "acme-shop storefront service",
		Long: `The storefront service serves the product catalog, per-user carts and
favorites, freight quotes and card checkout over HTTP.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a storefront.yaml config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		if err := logging.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newQuoteCmd(),
	)
	return root
}
