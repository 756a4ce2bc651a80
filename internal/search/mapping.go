package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the guest mapping.
//
// Text is folded before indexing, so the simple analyzer (letter tokenizer
// plus lowercase) is enough; stemming would only hurt personal names.
// event_id and rsvp_status are keywords for exact filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = simple.Name
	nameFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldName, nameFieldMapping)

	plusOneFieldMapping := bleve.NewTextFieldMapping()
	plusOneFieldMapping.Analyzer = simple.Name
	plusOneFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldPlusOneName, plusOneFieldMapping)

	notesFieldMapping := bleve.NewTextFieldMapping()
	notesFieldMapping.Analyzer = simple.Name
	notesFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(fieldNotes, notesFieldMapping)

	eventFieldMapping := bleve.NewKeywordFieldMapping()
	eventFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldEventID, eventFieldMapping)

	statusFieldMapping := bleve.NewKeywordFieldMapping()
	statusFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldStatus, statusFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
