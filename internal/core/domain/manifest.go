package domain

// ManifestAuthor holds the validated author block of a manifest.
// Invalid email/homepage values are dropped during parsing, so empty
// fields mean "not declared or not valid".
type ManifestAuthor struct {
	Name     string
	Email    string
	Homepage string
}

// Manifest is the validated intermediate representation of a package.yaml.
// The Has* flags distinguish "field absent" from "field present but empty",
// because absence leaves the stored attribute untouched while presence
// replaces it.
type Manifest struct {
	Name        string
	HasName     bool
	Description string
	HasDesc     bool

	Type    ExtensionType
	HasType bool

	Keywords    []string
	HasKeywords bool

	Author ManifestAuthor

	License    string
	HasLicense bool

	// Dependencies lists "owner/name" references. Always applied as a full
	// replacement of the stored dependency set when a manifest is present.
	Dependencies []RepoKey

	// Files is the declared file list, applied verbatim.
	Files []string
}
