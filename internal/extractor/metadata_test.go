package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataFromFilename(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		author string
		title  string
		year   string
	}{
		{
			name:   "underscore separates author from title",
			path:   "/corpus/Bush_The Promise of Mediation.pdf",
			author: "Bush",
			title:  "The Promise of Mediation",
		},
		{
			name:   "comma separates author from title",
			path:   "Folger, Transformative Approaches to Conflict.pdf",
			author: "Folger",
			title:  "Transformative Approaches to Conflict",
		},
		{
			name:   "year anywhere in the name",
			path:   "Smith_Empowerment and Recognition 2020.pdf",
			author: "Smith",
			title:  "Empowerment and Recognition 2020",
			year:   "2020",
		},
		{
			name:  "no pattern keeps whole name as title",
			path:  "conflict-resolution-handbook.pdf",
			title: "conflict-resolution-handbook",
		},
		{
			name:  "long first segment is not an author",
			path:  "a very long leading phrase that is no author_rest.pdf",
			title: "a very long leading phrase that is no author rest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := MetadataFromFilename(tt.path)
			assert.Equal(t, tt.author, doc.Author)
			assert.Equal(t, tt.title, doc.Title)
			assert.Equal(t, tt.year, doc.Year)
		})
	}
}

func TestMetadataDocIDIsStable(t *testing.T) {
	a := MetadataFromFilename("/x/Bush_Promise.pdf")
	b := MetadataFromFilename("/y/Bush_Promise.pdf")
	assert.Equal(t, "Bush_Promise.pdf", a.DocID)
	assert.Equal(t, a.DocID, b.DocID)
}

func TestYearFromCreationDate(t *testing.T) {
	assert.Equal(t, "2005", yearFromCreationDate("D:20051103120000Z"))
	assert.Equal(t, "1998", yearFromCreationDate("19980401"))
	assert.Equal(t, "", yearFromCreationDate("D:xx"))
	assert.Equal(t, "", yearFromCreationDate(""))
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract("/nonexistent/file.pdf")
	assert.Error(t, err)

	var xerr *ExtractionError
	assert.ErrorAs(t, err, &xerr)
}
