// Package outreach transfers enriched contacts into Apollo contact lists.
package outreach

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// Status is the outcome of transferring one contact.
type Status string

const (
	StatusTransferred Status = "transferred"
	StatusDuplicate   Status = "duplicate"
	StatusNoEmail     Status = "no_email"
	StatusFailed      Status = "failed"
	// StatusListFailed means the contact was created but not added to the list.
	StatusListFailed Status = "list_failed"
)

// Item is one contact to transfer with the company it belongs to.
type Item struct {
	Contact model.Contact
	Company string
}

// Outcome records what happened to a single contact.
type Outcome struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Status    Status `json:"status"`
	ContactID string `json:"contact_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// TransferReport summarizes one transfer call.
type TransferReport struct {
	List        string    `json:"list"`
	ListID      string    `json:"list_id,omitempty"`
	Transferred int       `json:"transferred"`
	Duplicates  int       `json:"duplicates"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Outcomes    []Outcome `json:"outcomes"`
}

// Transferrer pushes contacts to the outreach platform.
type Transferrer struct {
	client apollo.Client

	mu    sync.Mutex
	lists map[string]string
}

// NewTransferrer creates a Transferrer. List ids are cached per name for the
// transferrer's lifetime.
func NewTransferrer(client apollo.Client) *Transferrer {
	return &Transferrer{client: client, lists: make(map[string]string)}
}

// Transfer creates each contact that has an email and is not already known,
// then adds it to listName. An empty listName creates contacts only.
// Per-contact failures are counted; rejected credentials abort the call.
func (t *Transferrer) Transfer(ctx context.Context, listName string, contacts []model.Contact) (*TransferReport, error) {
	items := make([]Item, len(contacts))
	for i, c := range contacts {
		items[i] = Item{Contact: c}
	}
	return t.TransferItems(ctx, listName, items)
}

// TransferResults transfers the contacts of enrichment results, tagging each
// contact with its company name.
func (t *Transferrer) TransferResults(ctx context.Context, listName string, results []*model.EnrichmentResult) (*TransferReport, error) {
	var items []Item
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, c := range r.Contacts {
			items = append(items, Item{Contact: c, Company: r.Company.Name})
		}
	}
	return t.TransferItems(ctx, listName, items)
}

// TransferItems is Transfer for contacts carrying a company name.
func (t *Transferrer) TransferItems(ctx context.Context, listName string, items []Item) (*TransferReport, error) {
	ctx = apollo.WithRunScope(ctx)
	listName = strings.TrimSpace(listName)
	report := &TransferReport{List: listName, Outcomes: make([]Outcome, 0, len(items))}
	log := zap.L().With(zap.String("list", listName))

	if listName != "" {
		id, err := t.ensureList(ctx, listName)
		if err != nil {
			return nil, err
		}
		report.ListID = id
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "outreach: transfer")
		}

		out, err := t.transferOne(ctx, report.ListID, item)
		if err != nil {
			return report, eris.Wrap(err, "outreach: transfer")
		}
		if out.Status == StatusFailed || out.Status == StatusListFailed {
			log.Warn("contact transfer incomplete",
				zap.String("contact", out.Name),
				zap.String("status", string(out.Status)),
				zap.String("reason", out.Reason),
			)
		}
		report.add(out)
		metrics.TransfersTotal.WithLabelValues(string(out.Status)).Inc()
	}

	log.Info("transfer complete",
		zap.Int("transferred", report.Transferred),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// transferOne returns an error only when the run must stop.
func (t *Transferrer) transferOne(ctx context.Context, listID string, item Item) (Outcome, error) {
	c := item.Contact
	email := strings.TrimSpace(c.Email)
	out := Outcome{Name: c.Name, Email: email}

	if email == "" {
		out.Status = StatusNoEmail
		return out, nil
	}

	existing, err := t.client.FindContactByEmail(ctx, email)
	if err != nil {
		if fatal(ctx, err) {
			return out, err
		}
		// Unknown duplicate state; create anyway.
		zap.L().Debug("duplicate check failed", zap.String("email", email), zap.Error(err))
	}
	if existing != "" {
		out.Status = StatusDuplicate
		out.ContactID = existing
		return out, nil
	}

	id, err := t.client.CreateContact(ctx, contactInput(item))
	if err != nil {
		if fatal(ctx, err) {
			return out, err
		}
		out.Status = StatusFailed
		out.Reason = err.Error()
		return out, nil
	}
	out.ContactID = id
	out.Status = StatusTransferred

	if listID == "" || id == "" {
		return out, nil
	}
	if err := t.client.AddContactsToList(ctx, listID, []string{id}); err != nil {
		if fatal(ctx, err) {
			return out, err
		}
		out.Status = StatusListFailed
		out.Reason = err.Error()
	}
	return out, nil
}

func (t *Transferrer) ensureList(ctx context.Context, name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.lists[name]; ok {
		return id, nil
	}
	id, err := t.client.CreateContactList(ctx, name)
	if err != nil {
		return "", eris.Wrapf(err, "outreach: create list %q", name)
	}
	if id == "" {
		return "", eris.Errorf("outreach: create list %q returned no id", name)
	}
	t.lists[name] = id
	return id, nil
}

func contactInput(item Item) apollo.ContactInput {
	c := item.Contact
	first, last := c.FirstName, c.LastName
	if first == "" && last == "" {
		first, last = model.SplitName(c.Name)
	}
	return apollo.ContactInput{
		FirstName:        first,
		LastName:         last,
		Email:            strings.TrimSpace(c.Email),
		Phone:            c.Phone,
		Title:            c.Title,
		LinkedInURL:      c.LinkedInURL,
		OrganizationName: item.Company,
	}
}

func fatal(ctx context.Context, err error) bool {
	return resilience.IsConfigError(err) || ctx.Err() != nil
}

func (r *TransferReport) add(o Outcome) {
	switch o.Status {
	case StatusTransferred:
		r.Transferred++
	case StatusDuplicate:
		r.Duplicates++
	case StatusNoEmail:
		r.Skipped++
	case StatusFailed, StatusListFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}
