package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smartrecruiters-source/internal/secrets"
)

func newTokenCmd(f *rootFlags) *cobra.Command {
	var account string
	resolve := func() (string, error) {
		if strings.TrimSpace(account) != "" {
			return account, nil
		}
		cfg, err := readConfig(f)
		if err != nil {
			return "", err
		}
		cfg.CompanyIdentifier = strings.TrimSpace(cfg.CompanyIdentifier)
		if cfg.Client.TokenKeyringAccount != "" {
			return cfg.Client.TokenKeyringAccount, nil
		}
		if cfg.CompanyIdentifier == "" {
			return "", fmt.Errorf("token: --account or --company is required")
		}
		return secrets.AccountFor(cfg.CompanyIdentifier), nil
	}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the API token in the OS keychain",
	}
	cmd.PersistentFlags().StringVar(&account, "account", "", "keyring account (defaults to client.token_keyring_account)")

	cmd.AddCommand(&cobra.Command{
		Use:   "set TOKEN",
		Short: "Store the API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := resolve()
			if err != nil {
				return err
			}
			if err := secrets.SetToken(acct, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token stored for %s\n", acct)
			return nil
		},
	}, &cobra.Command{
		Use:   "delete",
		Short: "Remove the API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			acct, err := resolve()
			if err != nil {
				return err
			}
			if err := secrets.DeleteToken(acct); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token deleted for %s\n", acct)
			return nil
		},
	})
	return cmd
}
