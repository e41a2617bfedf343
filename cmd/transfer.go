package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/outreach"
)

var (
	transferList    string
	transferInput   string
	transferName    string
	transferWebsite string
	transferJSON    bool
)

// transferFile accepts either a batch report or a single enrich result.
type transferFile struct {
	Items []enrich.BatchItem `json:"items"`
	model.EnrichmentResult
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Push enriched contacts into an Apollo contact list",
	Long:  "Creates Apollo contacts for enriched people that have an email and adds them to a named list. Contacts come from a batch or enrich JSON file, or from the stored results of one company.",
	Example: `  leadgen transfer --list "Pune CAs" --input report.json
  leadgen transfer --list "Pune CAs" --name "Acme Consulting" --website acme.in`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("transfer"); err != nil {
			return err
		}
		if (transferInput == "") == (transferName == "") {
			return eris.New("exactly one of --input or --name is required")
		}

		var results []*model.EnrichmentResult
		if transferInput != "" {
			data, err := os.ReadFile(transferInput)
			if err != nil {
				return eris.Wrapf(err, "read %s", transferInput)
			}
			results, err = parseTransferFile(data)
			if err != nil {
				return err
			}
		} else {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			company := model.CompanyRef{Name: transferName, Website: transferWebsite}
			contacts, err := st.LookupContacts(ctx, company.Key())
			if err != nil {
				return eris.Wrap(err, "transfer: lookup stored contacts")
			}
			if len(contacts) == 0 {
				return eris.Errorf("no stored contacts for %s", company.Name)
			}
			results = []*model.EnrichmentResult{{Company: company, Contacts: contacts}}
		}

		t := outreach.NewTransferrer(newApolloClient(cfg.Apollo))
		report, err := t.TransferResults(ctx, transferList, results)
		if err != nil {
			return eris.Wrap(err, "transfer")
		}

		if transferJSON {
			return writeJSON(os.Stdout, report)
		}
		formatTransferReport(os.Stdout, report)
		return nil
	},
}

func init() {
	transferCmd.Flags().StringVar(&transferList, "list", "", "Apollo contact list to add contacts to (created if missing)")
	transferCmd.Flags().StringVar(&transferInput, "input", "", "batch report or enrich result JSON file")
	transferCmd.Flags().StringVar(&transferName, "name", "", "transfer the stored contacts of this company")
	transferCmd.Flags().StringVar(&transferWebsite, "website", "", "website of the company given by --name")
	transferCmd.Flags().BoolVar(&transferJSON, "json", false, "print the transfer report as JSON")
	rootCmd.AddCommand(transferCmd)
}

func parseTransferFile(data []byte) ([]*model.EnrichmentResult, error) {
	var f transferFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "parse transfer input")
	}
	var results []*model.EnrichmentResult
	for _, item := range f.Items {
		if item.Result != nil {
			results = append(results, item.Result)
		}
	}
	if len(f.Items) == 0 && len(f.Contacts) > 0 {
		r := f.EnrichmentResult
		results = append(results, &r)
	}
	if len(results) == 0 {
		return nil, eris.New("no contacts in transfer input")
	}
	return results, nil
}

func formatTransferReport(out io.Writer, r *outreach.TransferReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tSTATUS\tCONTACT_ID\tREASON")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t----------\t------")
	for _, o := range r.Outcomes {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(o.Name, 30), o.Email, o.Status, o.ContactID, truncate(o.Reason, 50))
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d transferred, %d duplicates, %d skipped, %d failed\n",
		r.Transferred, r.Duplicates, r.Skipped, r.Failed)
}
