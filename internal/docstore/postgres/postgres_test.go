package postgres

import (
	"strings"
	"testing"
)

func TestSetQueryIsAnUpsert(t *testing.T) {
	query := strings.ToLower(setQuery)

	requiredFragments := []string{
		"insert into documents",
		"on conflict (collection, id) do update",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected upsert fragment %q to be present", fragment)
		}
	}
}

func TestQueriesAreCollectionScoped(t *testing.T) {
	for name, query := range map[string]string{
		"get":    getQuery,
		"set":    setQuery,
		"delete": deleteQuery,
		"find":   findByFieldQuery,
	} {
		if !strings.Contains(strings.ToLower(query), "collection") {
			t.Fatalf("%s query is not collection scoped: %s", name, query)
		}
	}
}

func TestFindByFieldQueryReturnsSingleMatch(t *testing.T) {
	if !strings.Contains(strings.ToLower(findByFieldQuery), "limit 1") {
		t.Fatal("find-by-field query must return at most one row")
	}
}
