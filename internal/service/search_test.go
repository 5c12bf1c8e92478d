package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnihq/omnicrm/internal/database/repository"
)

func named(first, last string) repository.Contact {
	return repository.Contact{FirstName: first, LastName: last}
}

func TestRankContactsSubstringBeforeFuzzy(t *testing.T) {
	t.Parallel()
	contacts := []repository.Contact{
		named("Mara", "Kovic"), // fuzzy match on "maya" (distance 1)
		named("Maya", "Chen"),  // substring match
		named("Jordan", "Oduya"),
	}
	out := RankContacts(contacts, "maya", 0)
	require.Len(t, out, 2)
	require.Equal(t, "Maya", out[0].FirstName)
	require.Equal(t, "Mara", out[1].FirstName)
}

func TestRankContactsMatchesEmail(t *testing.T) {
	t.Parallel()
	email := "maya.chen@example.com"
	c := repository.Contact{FirstName: "Maya", LastName: "Chen", Email: &email}
	out := RankContacts([]repository.Contact{c}, "example.com", 0)
	require.Len(t, out, 1)
}

func TestRankContactsDropsDistantMatches(t *testing.T) {
	t.Parallel()
	out := RankContacts([]repository.Contact{named("Jordan", "Oduya")}, "zzzzzzzzz", 0)
	require.Empty(t, out)
}

func TestRankContactsEmptyQueryTruncates(t *testing.T) {
	t.Parallel()
	contacts := []repository.Contact{named("A", "A"), named("B", "B"), named("C", "C")}
	out := RankContacts(contacts, "", 2)
	require.Len(t, out, 2)
	require.Equal(t, "A", out[0].FirstName)
}
