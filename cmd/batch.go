package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/filter"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	batchInput       string
	batchOutput      string
	batchDesignation string
	batchConcurrency int
	batchEmployees   string
)

// companyFile is the YAML input of the batch command and the output of
// discover. A bare list of companies is accepted too.
type companyFile struct {
	Designation string             `yaml:"designation,omitempty"`
	Companies   []model.CompanyRef `yaml:"companies"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Discover and enrich contacts for a list of companies",
	Long:  "Reads companies from a YAML file and enriches them concurrently. One company failing does not stop the batch; a credential error does.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		file, err := readCompanyFile(batchInput)
		if err != nil {
			return err
		}
		designation := file.Designation
		if batchDesignation != "" {
			designation = batchDesignation
		}
		if batchEmployees != "" {
			headcount, err := filter.ParseEmployeeRanges(batchEmployees)
			if err != nil {
				return err
			}
			cfg.Enrich.EmployeeRanges = headcount
		}

		env, err := initEnrich(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentCompanies
		}

		report, err := env.Orchestrator.RunBatch(ctx, file.Companies, model.ParseDesignation(designation), concurrency)
		if err != nil {
			return eris.Wrap(err, "batch")
		}

		zap.L().Info("batch complete",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("out_of_range", countOutOfRange(report)),
			zap.Int("failed", report.Failed),
			zap.Int("credits", report.CreditsSpent),
			zap.Float64("cost_usd", env.Calculator.Credits(report.CreditsSpent)),
		)

		out := io.Writer(os.Stdout)
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "create batch output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		if err := writeJSON(out, report); err != nil {
			return eris.Wrap(err, "write batch report")
		}
		formatBatchSummary(os.Stderr, report)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "companies.yaml", "YAML file listing companies")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write the JSON report here instead of stdout")
	batchCmd.Flags().StringVar(&batchDesignation, "designation", "", "comma-separated title keywords (overrides the file)")
	batchCmd.Flags().StringVar(&batchEmployees, "employees", "", "skip companies whose headcount is outside these comma-separated ranges: "+strings.Join(filter.EmployeeBuckets(), ", "))
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "companies processed in parallel (default from config)")
	rootCmd.AddCommand(batchCmd)
}

func readCompanyFile(path string) (*companyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return parseCompanyFile(data)
}

func parseCompanyFile(data []byte) (*companyFile, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, eris.Wrap(err, "parse companies")
	}
	file := &companyFile{}
	if len(node.Content) > 0 {
		doc := node.Content[0]
		var err error
		if doc.Kind == yaml.SequenceNode {
			err = doc.Decode(&file.Companies)
		} else {
			err = doc.Decode(file)
		}
		if err != nil {
			return nil, eris.Wrap(err, "decode companies")
		}
	}
	if len(file.Companies) == 0 {
		return nil, eris.New("no companies in input")
	}
	for i, c := range file.Companies {
		if err := c.Validate(); err != nil {
			return nil, eris.Wrapf(err, "company %d", i+1)
		}
	}
	return file, nil
}

// countOutOfRange counts companies skipped for headcount.
func countOutOfRange(r *enrich.BatchReport) int {
	n := 0
	for _, item := range r.Items {
		if item.Result != nil && item.Result.OutOfRange {
			n++
		}
	}
	return n
}

func formatBatchSummary(out io.Writer, r *enrich.BatchReport) {
	_, _ = fmt.Fprintf(out, "%d succeeded, %d failed, %d credits spent\n", r.Succeeded, r.Failed, r.CreditsSpent)
	if n := countOutOfRange(r); n > 0 {
		_, _ = fmt.Fprintf(out, "  %d skipped outside employee ranges\n", n)
	}
	for _, item := range r.Items {
		if item.Error != "" {
			_, _ = fmt.Fprintf(out, "  %s: %s\n", item.Company.Name, item.Error)
		}
	}
}
