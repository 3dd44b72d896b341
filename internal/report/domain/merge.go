package domain

import (
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
)

// MergeSignups collapses records sharing an email into one consumer record
// per email, in first-seen order. List-valued fields union with set
// semantics; an api or application id once seen is never lost. Scalar fields
// take the last-processed record's value. The function is pure and
// idempotent.
func MergeSignups(records []signupdomain.Signup) []signupdomain.Signup {
	merged := make([]signupdomain.Signup, 0, len(records))
	index := make(map[string]int, len(records))

	for _, record := range records {
		at, ok := index[record.Email]
		if !ok {
			index[record.Email] = len(merged)
			merged = append(merged, record)
			continue
		}

		existing := merged[at]
		next := record
		next.APIs = signupdomain.JoinAPIs(
			signupdomain.UnionAPIs(record.APIList(), existing.APIList()),
		)
		next.OktaApplicationID = mergeIDs(record.OktaApplicationID, existing.OktaApplicationID)
		merged[at] = next
	}
	return merged
}

// mergeIDs unions two comma-joined id sets, incoming ids first.
func mergeIDs(incoming, existing *string) *string {
	var incomingIDs, existingIDs []string
	if incoming != nil {
		incomingIDs = signupdomain.SplitAPIs(*incoming)
	}
	if existing != nil {
		existingIDs = signupdomain.SplitAPIs(*existing)
	}
	union := signupdomain.UnionAPIs(incomingIDs, existingIDs)
	if len(union) == 0 {
		return nil
	}
	joined := signupdomain.JoinAPIs(union)
	return &joined
}
