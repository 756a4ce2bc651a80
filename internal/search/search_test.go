package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
)

func setupTestIndex(t *testing.T) *GuestIndex {
	t.Helper()

	index, err := NewGuestIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func guest(id, eventID, name string) *domain.Guest {
	g := &domain.Guest{EventID: eventID, Name: name, RSVPStatus: domain.RSVPConfirmed}
	g.ID = id
	return g
}

func seed(t *testing.T, index *GuestIndex) {
	t.Helper()

	maria := guest("guest-2", "evt-1", "Maria Silva")
	maria.PlusOneName = "Inês Araújo"
	maria.RSVPStatus = domain.RSVPDeclined

	ana := guest("guest-3", "evt-1", "Ana Costa")
	ana.Notes = "Vamos chegar depois da cerimónia"

	require.NoError(t, index.IndexGuests([]*domain.Guest{
		guest("guest-1", "evt-1", "João Gonçalves"),
		maria,
		ana,
		guest("guest-4", "evt-2", "Joao Pereira"),
	}))
}

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"João Gonçalves": "joao goncalves",
		"  ÉLODIE ":      "elodie",
		"Inês Araújo":    "ines araujo",
		"plain":          "plain",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Fold(in), in)
	}
}

func TestGuestIndex_Count(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	seed(t, index)

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestGuestIndex_SearchIgnoresAccentsAndCase(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	for _, q := range []string{"joao", "JOÃO", "goncalves", "Gonçalves"} {
		hits, total, err := index.Search(context.Background(), Params{EventID: "evt-1", Query: q})
		require.NoError(t, err, q)
		assert.Equal(t, uint64(1), total, q)
		assert.Equal(t, []string{"guest-1"}, ids(hits), q)
	}
}

func TestGuestIndex_SearchScopedToEvent(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	hits, _, err := index.Search(context.Background(), Params{EventID: "evt-2", Query: "joao"})
	require.NoError(t, err)
	assert.Equal(t, []string{"guest-4"}, ids(hits))
}

func TestGuestIndex_SearchPlusOneAndNotes(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	hits, _, err := index.Search(context.Background(), Params{EventID: "evt-1", Query: "araujo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"guest-2"}, ids(hits))

	hits, _, err = index.Search(context.Background(), Params{EventID: "evt-1", Query: "cerimonia"})
	require.NoError(t, err)
	assert.Equal(t, []string{"guest-3"}, ids(hits))
}

func TestGuestIndex_SearchPrefixAndFuzzy(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	hits, _, err := index.Search(context.Background(), Params{EventID: "evt-1", Query: "gonç"})
	require.NoError(t, err)
	assert.Contains(t, ids(hits), "guest-1")

	hits, _, err = index.Search(context.Background(), Params{EventID: "evt-1", Query: "silvq"})
	require.NoError(t, err)
	assert.Contains(t, ids(hits), "guest-2")
}

func TestGuestIndex_EmptyQueryListsEvent(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	hits, total, err := index.Search(context.Background(), Params{EventID: "evt-1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.ElementsMatch(t, []string{"guest-1", "guest-2", "guest-3"}, ids(hits))

	hits, _, err = index.Search(context.Background(), Params{EventID: "evt-1", Status: string(domain.RSVPDeclined)})
	require.NoError(t, err)
	assert.Equal(t, []string{"guest-2"}, ids(hits))
}

func TestGuestIndex_Limit(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	hits, total, err := index.Search(context.Background(), Params{EventID: "evt-1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, uint64(3), total)
}

func TestGuestIndex_RequiresEvent(t *testing.T) {
	_, _, err := setupTestIndex(t).Search(context.Background(), Params{Query: "x"})
	assert.Error(t, err)
}

func TestGuestIndex_UpdateAndDelete(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	renamed := guest("guest-1", "evt-1", "Joana Reis")
	require.NoError(t, index.IndexGuest(renamed))

	hits, _, err := index.Search(context.Background(), Params{EventID: "evt-1", Query: "goncalves"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, index.DeleteGuest("guest-1"))
	require.NoError(t, index.DeleteGuests([]string{"guest-2", "missing"}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestGuestIndex_Rebuild(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	require.NoError(t, index.Rebuild([]*domain.Guest{guest("guest-9", "evt-1", "Rita Lopes")}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, _, err := index.Search(context.Background(), Params{EventID: "evt-1", Query: "rita"})
	require.NoError(t, err)
	assert.Equal(t, []string{"guest-9"}, ids(hits))
}
