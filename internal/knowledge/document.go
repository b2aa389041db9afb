package knowledge

// Well-known metadata keys. Metadata is carried verbatim through chunking,
// embedding, indexing, and retrieval so every result stays traceable to its
// origin.
const (
	MetaSource = "source"
	MetaType   = "type"
)

// Document types used by the built-in corpus.
const (
	TypeFAQ         = "faq"
	TypeTranslation = "translation"
	TypeProjectDoc  = "project_doc"
)

// Document is an immutable content + metadata pair. Chunks derived from a
// document copy its metadata.
type Document struct {
	Content  string            `json:"page_content"`
	Metadata map[string]string `json:"metadata"`
}

// NewDocument creates a Document with a copy of the given metadata.
func NewDocument(content string, metadata map[string]string) Document {
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return Document{Content: content, Metadata: md}
}

// CloneMetadata returns an independent copy of the document's metadata map.
func (d Document) CloneMetadata() map[string]string {
	md := make(map[string]string, len(d.Metadata))
	for k, v := range d.Metadata {
		md[k] = v
	}
	return md
}
