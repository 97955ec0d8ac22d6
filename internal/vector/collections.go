package vector

import (
	"strings"
	"unicode"

	"github.com/weaviate/weaviate/entities/models"
)

// Collection describes one named partition of the vector index: its external
// name, the Weaviate class backing it, and the record fields it stores next to
// the text body. All documents in a collection share the embedder's vector
// dimensionality.
type Collection struct {
	Name       string
	Class      string
	Properties []*models.Property
}

// ClassName converts an external collection name into a GraphQL-safe Weaviate
// class name, e.g. "aks_logs" -> "AksLogs".
func ClassName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func textProp(name string) *models.Property {
	return &models.Property{Name: name, DataType: []string{"text"}}
}

func stringProp(name string) *models.Property {
	// Exact-match fields (identifiers, categories).
	return &models.Property{Name: name, DataType: []string{"string"}}
}

// LogCollection describes the collection holding observability log lines.
func LogCollection(name string) Collection {
	return Collection{
		Name:  name,
		Class: ClassName(name),
		Properties: []*models.Property{
			textProp("content"),
			stringProp("timestamp"),
			stringProp("level"),
			stringProp("namespace"),
			stringProp("pod"),
			stringProp("application"),
			stringProp("node"),
			textProp("message"),
			stringProp("traceId"),
		},
	}
}

// TicketCollection describes the collection holding incident tickets.
func TicketCollection(name string) Collection {
	return Collection{
		Name:  name,
		Class: ClassName(name),
		Properties: []*models.Property{
			textProp("content"),
			stringProp("ticketId"),
			stringProp("timestamp"),
			stringProp("namespace"),
			stringProp("pod"),
			stringProp("application"),
			stringProp("node"),
			stringProp("ticketType"),
			textProp("message"),
			textProp("suggestedAction"),
			stringProp("traceId"),
		},
	}
}
