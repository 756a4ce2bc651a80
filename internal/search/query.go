package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 50

// Params configures a guest search.
type Params struct {
	EventID string // required
	Query   string // empty lists every guest of the event
	Status  string // optional rsvp_status filter
	Limit   int
}

// Hit is one matching guest.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Search returns guest ids of one event matching the query, best first.
func (s *GuestIndex) Search(ctx context.Context, params Params) ([]Hit, uint64, error) {
	if params.EventID == "" {
		return nil, 0, fmt.Errorf("search requires an event id")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, result.Total, nil
}

// buildQuery scopes to the event and, when text is given, matches it
// against the guest's names and notes.
func buildQuery(params Params) query.Query {
	eventQuery := bleve.NewTermQuery(params.EventID)
	eventQuery.SetField(fieldEventID)
	queries := []query.Query{eventQuery}

	if params.Status != "" {
		statusQuery := bleve.NewTermQuery(params.Status)
		statusQuery.SetField(fieldStatus)
		queries = append(queries, statusQuery)
	}

	if text := Fold(params.Query); text != "" {
		nameMatch := bleve.NewMatchQuery(text)
		nameMatch.SetField(fieldName)
		nameMatch.SetBoost(3.0)

		plusOneMatch := bleve.NewMatchQuery(text)
		plusOneMatch.SetField(fieldPlusOneName)
		plusOneMatch.SetBoost(1.5)

		notesMatch := bleve.NewMatchQuery(text)
		notesMatch.SetField(fieldNotes)

		// Typo tolerance on the name.
		fuzzy := bleve.NewFuzzyQuery(text)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField(fieldName)
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{nameMatch, plusOneMatch, notesMatch, fuzzy}

		if len(text) >= 2 {
			prefix := bleve.NewPrefixQuery(text)
			prefix.SetField(fieldName)
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	return bleve.NewConjunctionQuery(queries...)
}
