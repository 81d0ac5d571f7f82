package confluence

// Wire DTOs for the Confluence REST API. Optional objects are pointers so
// absent fields decode to nil rather than zero structs.

// ContentItem is one content entity as returned by /content/search and /content/{id}.
type ContentItem struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"`
	Title   string        `json:"title"`
	Excerpt string        `json:"excerpt"`
	Space   *SpaceField   `json:"space"`
	Version *VersionField `json:"version"`
	Body    *BodyField    `json:"body"`
	Links   *LinksField   `json:"_links"`
}

// SpaceField carries the containing space metadata.
type SpaceField struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// VersionField carries version metadata.
type VersionField struct {
	Number int    `json:"number"`
	When   string `json:"when"`
}

// BodyField carries the storage-format body.
type BodyField struct {
	Storage *StorageField `json:"storage"`
}

// StorageField is the raw storage-format markup.
type StorageField struct {
	Value string `json:"value"`
}

// LinksField carries navigation links.
type LinksField struct {
	WebUI string `json:"webui"`
}

// searchResponse is the envelope of /content/search.
type searchResponse struct {
	Results []ContentItem `json:"results"`
}

// currentUser is the envelope of /user/current.
type currentUser struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// SpaceName returns the space name or "" when absent.
func (c *ContentItem) SpaceName() string {
	if c.Space == nil {
		return ""
	}
	return c.Space.Name
}

// VersionNumber returns the version number or 0 when absent.
func (c *ContentItem) VersionNumber() int {
	if c.Version == nil {
		return 0
	}
	return c.Version.Number
}

// VersionWhen returns the modification timestamp or "" when absent.
func (c *ContentItem) VersionWhen() string {
	if c.Version == nil {
		return ""
	}
	return c.Version.When
}

// BodyStorage returns the raw storage markup or "" when absent.
func (c *ContentItem) BodyStorage() string {
	if c.Body == nil || c.Body.Storage == nil {
		return ""
	}
	return c.Body.Storage.Value
}

// WebUI returns the relative web link or "" when absent.
func (c *ContentItem) WebUI() string {
	if c.Links == nil {
		return ""
	}
	return c.Links.WebUI
}
