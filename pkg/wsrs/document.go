package wsrs

// Document is one raw corpus record. Text is kept as bytes until extraction
// so readers can hand over their buffers without an extra copy.
type Document struct {
	URL  string
	Text []byte
}

// Snippet is a bounded excerpt extracted from one document. Key has the form
// "url=<url>,snippet_id=<n>", where n counts extraction attempts for that
// document from zero, including attempts whose snippet was later dropped.
type Snippet struct {
	Key  string
	Text string
}
