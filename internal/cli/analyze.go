package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mhismail3/moosetabs/internal/enrich"
	"github.com/mhismail3/moosetabs/internal/extract"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		tabsPath      string
		providerFlag  string
		modelFlag     string
		actions       []string
		showReasoning bool
		quiet         bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Read the selected tabs and run requested actions on them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tabs, err := readTabs(tabsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			a, err := loadApp()
			if err != nil {
				return err
			}

			if len(actions) == 0 {
				if tabsPath == "-" {
					return fmt.Errorf("pass actions with -a when tabs are read from stdin")
				}
				reader := newActionReader(cmd.InOrStdin(), cmd.OutOrStdout(), a.cfg.DataDir())
				actions, err = promptActions(reader, cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}

			id, model := a.target(providerFlag, modelFlag)
			sess, err := a.orch.Session(cmd.Context(), id, model)
			if err != nil {
				return err
			}
			pipeline, err := enrich.New(a.extractor, sess, a.enrichConfig())
			if err != nil {
				return err
			}

			status := cmd.ErrOrStderr()
			if quiet {
				status = io.Discard
			}
			result, err := pipeline.Run(cmd.Context(), enrich.Request{Tabs: tabs, Actions: actions}, progressObserver(status))
			if err != nil {
				return err
			}
			return printAnalysis(cmd.OutOrStdout(), result, showReasoning)
		},
	}

	cmd.Flags().StringVar(&tabsPath, "tabs", "", "Tab snapshot JSON file (- for stdin)")
	cmd.Flags().StringVar(&providerFlag, "provider", "", "Provider id (defaults to llm.provider)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Model id or auto:free (defaults to llm.model)")
	cmd.Flags().StringArrayVarP(&actions, "action", "a", nil, "Action to run (repeatable); prompts when omitted")
	cmd.Flags().BoolVar(&showReasoning, "reasoning", false, "Print the model's reasoning trace")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide progress output")
	return cmd
}

func progressObserver(w io.Writer) enrich.Observer {
	return enrich.ObserverFuncs{
		Phase: func(p enrich.Phase) {
			fmt.Fprintf(w, "== %s\n", p)
		},
		Extraction: func(current, total int, last extract.Result) {
			fmt.Fprintf(w, "   [%d/%d] %s (%s)\n", current, total, last.Title, last.Category())
		},
	}
}

func printAnalysis(w io.Writer, result *enrich.Result, showReasoning bool) error {
	var b strings.Builder
	if showReasoning {
		for i, block := range result.Reasoning {
			fmt.Fprintf(&b, "--- reasoning %d ---\n%s\n\n", i+1, strings.TrimSpace(block))
		}
	}
	b.WriteString(strings.TrimSpace(result.Text))
	b.WriteString("\n")
	s := result.Summary
	fmt.Fprintf(&b, "\n%d tabs: %d read, %d restricted, %d browser pages, %d looked up, %d failed (%s)\n",
		s.Total, s.Successful, s.Restricted, s.BrowserInternal, s.Searchable, s.Failed, result.Duration.Round(time.Millisecond))
	_, err := io.WriteString(w, b.String())
	return err
}
