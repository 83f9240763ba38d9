package cli

import (
	"fmt"

	"github.com/mhismail3/moosetabs/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var check, showPath bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print merged configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !check && !showPath {
				return config.Write(cmd.OutOrStdout())
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if showPath {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), cfg.ConfigPath()); err != nil {
					return err
				}
			}
			if check {
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid config %s:\n%w", cfg.ConfigPath(), err)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "config ok")
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Validate the merged configuration")
	cmd.Flags().BoolVar(&showPath, "path", false, "Print the config file location")
	return cmd
}
