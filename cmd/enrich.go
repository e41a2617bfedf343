package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	enrichName        string
	enrichWebsite     string
	enrichAddress     string
	enrichExternalID  string
	enrichDesignation string
	enrichJSON        bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Discover and enrich contacts for one company",
	Example: `  leadgen enrich --name "Acme Consulting" --website acme.in
  leadgen enrich --name "Acme Consulting" --designation "founder,hr" --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnrich(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		company := model.CompanyRef{
			Name:       enrichName,
			Website:    enrichWebsite,
			ExternalID: enrichExternalID,
			Address:    enrichAddress,
		}
		result, err := env.Orchestrator.DiscoverAndEnrich(ctx, company, model.ParseDesignation(enrichDesignation))
		if err != nil {
			return eris.Wrapf(err, "enrich %s", company.Name)
		}

		usd := env.Calculator.Credits(result.CreditsSpent)
		zap.L().Info("enrichment complete",
			zap.String("company", company.Name),
			zap.String("strategy", result.StrategyUsed),
			zap.Int("contacts", len(result.Contacts)),
			zap.Int("credits", result.CreditsSpent),
			zap.Float64("cost_usd", usd),
		)

		if enrichJSON {
			return writeJSON(os.Stdout, result)
		}
		formatResult(os.Stdout, result, usd)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichName, "name", "", "company name (required)")
	enrichCmd.Flags().StringVar(&enrichWebsite, "website", "", "company website or domain")
	enrichCmd.Flags().StringVar(&enrichAddress, "address", "", "company address")
	enrichCmd.Flags().StringVar(&enrichExternalID, "external-id", "", "caller-supplied company identifier")
	enrichCmd.Flags().StringVar(&enrichDesignation, "designation", "", "comma-separated title keywords to keep (e.g. founder,hr)")
	enrichCmd.Flags().BoolVar(&enrichJSON, "json", false, "print the full result as JSON")
	_ = enrichCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(enrichCmd)
}

// formatResult writes a contact table and a run summary to out.
func formatResult(out io.Writer, r *model.EnrichmentResult, usd float64) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTITLE\tEMAIL\tPHONE\tTYPE\tVERDICT")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t-----\t----\t-------")
	for _, c := range r.Contacts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(c.Name, 30),
			truncate(c.Title, 40),
			c.Email,
			c.Phone,
			c.ContactType,
			c.Verdict,
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d contacts via %s", len(r.Contacts), r.StrategyUsed)
	if r.CacheHit {
		_, _ = fmt.Fprint(out, " (cached)")
	}
	_, _ = fmt.Fprintf(out, ", %d credits ($%.2f)", r.CreditsSpent, usd)
	if r.Truncated {
		_, _ = fmt.Fprintf(out, ", truncated at %d candidates", r.Stubs)
	}
	_, _ = fmt.Fprintln(out)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to at most n runes for table display.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
