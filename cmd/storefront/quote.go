package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/freight"
)

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <cep>",
		Short: "Print the freight quote for a postal code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quote, err := freight.Quote(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(quote)
		},
	}
}
