package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/catalog"
	reportdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/domain"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
)

// APIList renders catalog display names as an English list: "X", "X and Y",
// "X, Y, and Z".
func APIList(cat catalog.Catalog, ids []string) (string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name, err := cat.Name(id)
		if err != nil {
			return "", err
		}
		names = append(names, name)
	}

	switch len(names) {
	case 0:
		return "", nil
	case 1:
		return names[0], nil
	case 2:
		return names[0] + " and " + names[1], nil
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1], nil
	}
}

// SignupMessage renders the support-channel text for one new signup.
func SignupMessage(cat catalog.Catalog, record signupdomain.Signup) (string, error) {
	apis, err := APIList(cat, record.APIList())
	if err != nil {
		return "", err
	}
	email := record.Email
	description := signupdomain.DefaultDescription
	if record.Description != nil && *record.Description != "" {
		description = *record.Description
	}
	return fmt.Sprintf("%s applied for: %s.\n%s", email, apis, description), nil
}

// CountSummary renders a this-period vs all-time comparison. consumers is
// the merged one-record-per-email view of the full history.
func CountSummary(cat catalog.Catalog, window, allTime reportdomain.CountResult, consumers int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*New signups:* %d this period, %d all time\n", window.Total, allTime.Total)
	fmt.Fprintf(&b, "*Consumers:* %d all time\n", consumers)

	ids := make([]string, 0, len(allTime.APIs))
	for id := range allTime.APIs {
		ids = append(ids, id)
	}
	for id := range window.APIs {
		if _, ok := allTime.APIs[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		name, err := cat.Name(id)
		if err != nil {
			// Counting already failed loudly on catalog drift; here we only
			// fall back so a report never silently drops a row.
			name = id
		}
		fmt.Fprintf(&b, "• %s: %d this period, %d all time\n", name, window.APIs[id], allTime.APIs[id])
	}
	return strings.TrimRight(b.String(), "\n")
}
