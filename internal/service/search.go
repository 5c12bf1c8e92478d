package service

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/omnihq/omnicrm/internal/database/repository"
)

// maxEditDistance bounds how loose a fuzzy match may be before it is dropped.
const maxEditDistance = 3

// RankContacts orders contacts by relevance to the query: exact substring
// matches first, then close fuzzy matches on the full name by edit distance.
// An empty query returns the input order, truncated to limit.
func RankContacts(contacts []repository.Contact, query string, limit int) []repository.Contact {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		if limit > 0 && len(contacts) > limit {
			return contacts[:limit]
		}
		return contacts
	}

	type scored struct {
		contact  repository.Contact
		distance int
		substr   bool
	}

	var matches []scored
	for _, c := range contacts {
		full := strings.ToLower(strings.TrimSpace(c.FirstName + " " + c.LastName))
		email := ""
		if c.Email != nil {
			email = strings.ToLower(*c.Email)
		}

		if strings.Contains(full, q) || strings.Contains(email, q) {
			matches = append(matches, scored{contact: c, substr: true})
			continue
		}

		d := levenshtein.ComputeDistance(q, full)
		for _, part := range strings.Fields(full) {
			if pd := levenshtein.ComputeDistance(q, part); pd < d {
				d = pd
			}
		}
		if d <= maxEditDistance {
			matches = append(matches, scored{contact: c, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].substr != matches[j].substr {
			return matches[i].substr
		}
		return matches[i].distance < matches[j].distance
	})

	out := make([]repository.Contact, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.contact)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
