package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mhismail3/moosetabs/internal/provider"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var providerFlag string
	var freeOnly bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List supported providers and models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := provider.DefaultCatalog()
			if providerFlag != "" {
				p, ok := catalog.Lookup(provider.ID(providerFlag))
				if !ok {
					return fmt.Errorf("unknown provider %q", providerFlag)
				}
				catalog = provider.Catalog{p}
			}
			return printCatalog(cmd.OutOrStdout(), catalog, freeOnly)
		},
	}
	cmd.Flags().StringVar(&providerFlag, "provider", "", "Only list this provider")
	cmd.Flags().BoolVar(&freeOnly, "free", false, "Only list free-tier models")
	return cmd
}

func printCatalog(w io.Writer, catalog provider.Catalog, freeOnly bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range catalog {
		var notes []string
		if !p.RequiresCredential {
			notes = append(notes, "no key")
		}
		if p.SupportsEnrichedMode {
			notes = append(notes, "analyze")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.DisplayName, strings.Join(notes, ", "))
		if p.SupportsAutoFree() {
			fmt.Fprintf(tw, "  %s\ttry every free model in order\t\n", provider.AutoFreeModel)
		}
		for _, m := range p.Models {
			if freeOnly && !m.IsFree {
				continue
			}
			var tags []string
			if m.IsFree {
				tags = append(tags, "free")
			}
			if m.SupportsReasoningTrace {
				tags = append(tags, "reasoning")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.ID, m.DisplayName, strings.Join(tags, ", "))
		}
	}
	return tw.Flush()
}
