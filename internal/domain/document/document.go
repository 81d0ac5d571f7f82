package document

// Result is a lightweight summary of one matching document (immutable value object).
type Result struct {
	id      string
	title   string
	url     string
	space   string
	typ     string
	excerpt string
	body    string
}

// Defaults applied when the store omits optional fields.
const (
	DefaultSpace = "Unknown"
	DefaultType  = "page"
)

// NewResult creates a search result, applying defaults for absent space and type.
func NewResult(id, title, url, space, typ, excerpt, body string) Result {
	if space == "" {
		space = DefaultSpace
	}
	if typ == "" {
		typ = DefaultType
	}
	return Result{id: id, title: title, url: url, space: space, typ: typ, excerpt: excerpt, body: body}
}

// ID returns the stable content identifier.
func (r *Result) ID() string { return r.id }

// Title returns the document title.
func (r *Result) Title() string { return r.title }

// URL returns the absolute link to the document.
func (r *Result) URL() string { return r.url }

// Space returns the logical container name.
func (r *Result) Space() string { return r.space }

// Type returns the content type.
func (r *Result) Type() string { return r.typ }

// Excerpt returns the store-provided excerpt, possibly empty.
func (r *Result) Excerpt() string { return r.excerpt }

// Body returns the raw markup body, possibly empty.
func (r *Result) Body() string { return r.body }

// Document is a full document fetched by id. It is a read-only projection of
// remote state at call time: constructed fresh on every retrieval, never cached.
type Document struct {
	Result
	version      int
	lastModified string
}

// NewDocument creates a document, applying defaults for absent space, type and version.
func NewDocument(id, title, url, space, typ, body string, version int, lastModified string) Document {
	if version <= 0 {
		version = 1
	}
	return Document{
		Result:       NewResult(id, title, url, space, typ, "", body),
		version:      version,
		lastModified: lastModified,
	}
}

// Version returns the document version number.
func (d *Document) Version() int { return d.version }

// LastModified returns the last modification timestamp, possibly empty.
func (d *Document) LastModified() string { return d.lastModified }
