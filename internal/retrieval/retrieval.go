package retrieval

// Document is the unit stored in the vector index: an embedding-friendly text
// body plus the full record fields as metadata. Vector is populated by the
// loader just before upsert and is empty on documents coming back from search.
type Document struct {
	Text     string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
	Vector   []float32              `json:"-"`
}

// Match pairs a document with its similarity score. The score lives next to
// the document instead of being written into its metadata, so the same
// document value can be shared across calls without aliasing surprises.
type Match struct {
	Document Document `json:"document"`
	Score    float32  `json:"similarity_score"`
}

// AnnotatedMetadata returns a copy of the document metadata with the
// similarity score added under "similarity_score".
func (m Match) AnnotatedMetadata() map[string]interface{} {
	out := make(map[string]interface{}, len(m.Document.Metadata)+1)
	for k, v := range m.Document.Metadata {
		out[k] = v
	}
	out["similarity_score"] = m.Score
	return out
}
