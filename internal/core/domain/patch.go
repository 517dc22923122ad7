package domain

// Field names accepted by RepositoryPatch. The store maps them to columns.
const (
	FieldDisplayName  = "display_name"
	FieldDescription  = "description"
	FieldReadme       = "readme"
	FieldType         = "type"
	FieldKeywords     = "keywords"
	FieldAuthorName   = "author_name"
	FieldAuthorEmail  = "author_email"
	FieldAuthorURL    = "author_url"
	FieldLicense      = "license"
	FieldFiles        = "files"
	FieldHasManifest  = "has_manifest"
	FieldLastCommitID = "last_commit_id"
	FieldLastPush     = "last_push"
	FieldStargazers   = "stargazers_count"
	FieldForks        = "forks_count"
	FieldOpenIssues   = "issues_count"
	FieldParentID     = "parent_id"
	FieldWebhookID    = "webhook_id"
	FieldLastImport   = "last_import"
)

// RepositoryPatch accumulates field changes during one update pass and is
// applied by the store as a single atomic write covering exactly the fields
// that were set.
type RepositoryPatch struct {
	fields map[string]any
	order  []string
}

// NewRepositoryPatch creates an empty patch.
func NewRepositoryPatch() *RepositoryPatch {
	return &RepositoryPatch{fields: make(map[string]any)}
}

// Set records a new value for a field. Setting a field twice keeps the
// latest value without duplicating it in the field list.
func (p *RepositoryPatch) Set(field string, value any) {
	if _, ok := p.fields[field]; !ok {
		p.order = append(p.order, field)
	}
	p.fields[field] = value
}

// Get returns the staged value for a field.
func (p *RepositoryPatch) Get(field string) (any, bool) {
	v, ok := p.fields[field]
	return v, ok
}

// Has reports whether a field has been staged.
func (p *RepositoryPatch) Has(field string) bool {
	_, ok := p.fields[field]
	return ok
}

// Fields returns the staged field names in the order they were first set.
func (p *RepositoryPatch) Fields() []string {
	return p.order
}

// Len returns the number of staged fields.
func (p *RepositoryPatch) Len() int {
	return len(p.fields)
}
