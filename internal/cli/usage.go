package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mhismail3/moosetabs/internal/config"
	"github.com/mhismail3/moosetabs/internal/usage"
	"github.com/spf13/cobra"
)

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show model call counts for today and this month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			summary, err := usage.New(cfg.UsagePath()).Summary(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Today:      %d calls, %d failed\n", summary.Today.Calls, summary.Today.Failures)
			fmt.Fprintf(&b, "This month: %d calls, %d failed\n", summary.Month.Calls, summary.Month.Failures)
			if len(summary.ByModel) > 0 {
				keys := make([]string, 0, len(summary.ByModel))
				for k := range summary.ByModel {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				b.WriteString("\nBy model (this month):\n")
				for _, k := range keys {
					fmt.Fprintf(&b, "  %-50s %d\n", k, summary.ByModel[k])
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}
