package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mhismail3/moosetabs/internal/organize"
	"github.com/spf13/cobra"
)

func newOrganizeCmd() *cobra.Command {
	var (
		tabsPath     string
		providerFlag string
		modelFlag    string
		strategyFlag string
		feedback     string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Group a tab snapshot with the selected model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			strategy, err := organize.ParseStrategy(strategyFlag)
			if err != nil {
				return err
			}
			tabs, err := readTabs(tabsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}

			id, model := a.target(providerFlag, modelFlag)
			sess, err := a.orch.Session(cmd.Context(), id, model)
			if err != nil {
				return err
			}
			org, err := organize.New(sess, a.organizeConfig()).Organize(cmd.Context(), tabs, strategy, feedback)
			if err != nil {
				var verr *organize.ValidationError
				if errors.As(err, &verr) && verr.Raw != "" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "last model reply:\n%s\n", verr.Raw)
				}
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(org)
			}
			return printOrganization(cmd.OutOrStdout(), org, tabs)
		},
	}

	names := make([]string, 0, len(organize.Strategies))
	for _, s := range organize.Strategies {
		names = append(names, string(s))
	}
	cmd.Flags().StringVar(&tabsPath, "tabs", "", "Tab snapshot JSON file (- for stdin)")
	cmd.Flags().StringVar(&providerFlag, "provider", "", "Provider id (defaults to llm.provider)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Model id or auto:free (defaults to llm.model)")
	cmd.Flags().StringVarP(&strategyFlag, "strategy", "s", string(organize.StrategySmart), "Grouping strategy: "+strings.Join(names, ", "))
	cmd.Flags().StringVarP(&feedback, "feedback", "f", "", "Extra guidance for the model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func printOrganization(w io.Writer, org *organize.Organization, tabs []organize.Tab) error {
	titles := make(map[int]string, len(tabs))
	for _, t := range tabs {
		titles[t.ID] = t.Title
	}

	var b strings.Builder
	for _, g := range org.Groups {
		fmt.Fprintf(&b, "%s (%d)\n", g.Name, len(g.TabIDs))
		for _, id := range g.TabIDs {
			fmt.Fprintf(&b, "  [%d] %s\n", id, titles[id])
		}
	}
	if org.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", org.Explanation)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
