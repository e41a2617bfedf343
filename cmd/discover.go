package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	discoverIndustry    string
	discoverLocation    string
	discoverMax         int
	discoverOutput      string
	discoverDesignation string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find candidate companies by industry and location",
	Long:  "Searches Google Places for businesses matching an industry and location, drops directories, sole proprietors and duplicates, and writes a companies file the batch command can read.",
	Example: `  leadgen discover --industry "chartered accountants" --location "Pune" --max 40 --output companies.yaml
  leadgen batch --input companies.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("discover"); err != nil {
			return err
		}

		result, err := newPlacesSearch(cfg).Run(ctx, discovery.Query{
			Industry: discoverIndustry,
			Location: discoverLocation,
			Max:      discoverMax,
		})
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		zap.L().Info("discovery complete",
			zap.Int("candidates", len(result.Candidates)),
			zap.Int("api_calls", result.APICalls),
			zap.Float64("cost_usd", result.CostUSD),
		)

		out := io.Writer(os.Stdout)
		if discoverOutput != "" {
			f, err := os.Create(discoverOutput)
			if err != nil {
				return eris.Wrap(err, "create discovery output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		if err := writeCompanyFile(out, result.Candidates, discoverDesignation); err != nil {
			return err
		}
		formatDiscoverySummary(os.Stderr, result)
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverIndustry, "industry", "", "industry or business type to search for (required)")
	discoverCmd.Flags().StringVar(&discoverLocation, "location", "", "city or region to search in (required)")
	discoverCmd.Flags().IntVar(&discoverMax, "max", 0, "maximum qualified companies to return (0 = no cap)")
	discoverCmd.Flags().StringVar(&discoverOutput, "output", "", "write the companies file here instead of stdout")
	discoverCmd.Flags().StringVar(&discoverDesignation, "designation", "", "designation to record in the companies file")
	_ = discoverCmd.MarkFlagRequired("industry")
	_ = discoverCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(discoverCmd)
}

// writeCompanyFile writes candidates as a YAML companies file.
func writeCompanyFile(out io.Writer, candidates []discovery.Candidate, designation string) error {
	file := companyFile{
		Designation: designation,
		Companies:   make([]model.CompanyRef, 0, len(candidates)),
	}
	for _, c := range candidates {
		file.Companies = append(file.Companies, c.ToCompany())
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return eris.Wrap(err, "encode companies")
	}
	return eris.Wrap(enc.Close(), "flush companies")
}

func formatDiscoverySummary(out io.Writer, r *discovery.Result) {
	_, _ = fmt.Fprintf(out, "%d companies qualified, %d searches ($%.3f)\n", len(r.Candidates), r.APICalls, r.CostUSD)
	reasons := make([]string, 0, len(r.Disqualified))
	for reason := range r.Disqualified {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		_, _ = fmt.Fprintf(out, "  dropped %s: %d\n", reason, r.Disqualified[reason])
	}
}
