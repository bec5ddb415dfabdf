package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/auth/apikey"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the shared API key",
	}
	cmd.AddCommand(newKeyGenerateCmd())
	return cmd
}

func newKeyGenerateCmd() *cobra.Command {
	var showHash bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a new random API key for auth.apiKey / RAG_API_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := apikey.GenerateKey()
			if err != nil {
				return err
			}
			if showHash {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\nsha256: %s\n", key, apikey.HashKey(key))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}

	cmd.Flags().BoolVar(&showHash, "hash", false, "Also print the key's sha256 hash")

	return cmd
}
