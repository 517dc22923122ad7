package domain

import "strings"

// FileInventory maps lower-cased file extensions to occurrence counts and
// the ordered list of matching lower-cased paths. It is transient, built by
// one directory walk and discarded with the update that needed it.
type FileInventory struct {
	counts map[string]int
	files  map[string][]string

	// Truncated is set when the walk hit a depth or file cap, or aborted
	// on a transient listing failure, so the inventory is partial.
	Truncated bool
}

// NewFileInventory creates an empty inventory.
func NewFileInventory() *FileInventory {
	return &FileInventory{
		counts: make(map[string]int),
		files:  make(map[string][]string),
	}
}

// Add records one file path. The extension is the suffix from the last dot
// of the lower-cased path, or the empty string if the name has no dot.
func (inv *FileInventory) Add(path string) {
	lower := strings.ToLower(path)
	ext := ExtensionOf(lower)
	inv.counts[ext]++
	inv.files[ext] = append(inv.files[ext], lower)
}

// Count returns the number of files seen with the given extension.
func (inv *FileInventory) Count(ext string) int {
	return inv.counts[ext]
}

// Files returns the lower-cased paths seen with the given extension, in
// walk order. Unseen extensions yield an empty slice.
func (inv *FileInventory) Files(ext string) []string {
	return inv.files[ext]
}

// Total returns the total number of files recorded.
func (inv *FileInventory) Total() int {
	n := 0
	for _, c := range inv.counts {
		n += c
	}
	return n
}

// ExtensionOf extracts the extension including the dot from a path.
// Paths without a dot in the final element have the empty extension.
func ExtensionOf(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		// No dot, or a dotfile like ".gitignore" which has no extension.
		return ""
	}
	return base[i:]
}
