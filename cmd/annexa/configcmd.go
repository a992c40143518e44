package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/annexahq/annexa/internal/ai"
)

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Never print secrets.
			cfg.AI = ai.NewClient(cfg.AI).Masked()
			if cfg.Billing.WebhookSecret != "" {
				cfg.Billing.WebhookSecret = "****"
			}
			if cfg.Redis.Password != "" {
				cfg.Redis.Password = "****"
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}
