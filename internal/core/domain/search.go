package domain

// SearchDocument is the denormalized projection of a repository that gets
// republished into the full-text index after every successful import.
type SearchDocument struct {
	RepositoryID int64
	Owner        string
	Name         string
	Keywords     string // keywords joined by spaces
	DisplayName  string
	AuthorName   string
	Description  string
	Readme       string // rendered readme, tags stripped by the index
	Type         ExtensionType
}

// SearchResult is one full-text match.
type SearchResult struct {
	RepositoryID int64
	Owner        string
	Name         string
	Score        float64
}
