package workshop

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/pzmod/pkg/steam"
)

// ModEntry is an immutable snapshot of one workshop item.
//
// ModIDs and Children keep description and API order. Callers must treat
// the slices as read-only; the cache hands out shared copies.
type ModEntry struct {
	WorkshopID  string   // Published file ID, stable across updates
	Title       string   // Display title
	Creator     string   // Steam ID of the author
	Description string   // Raw description containing "Mod ID:" lines
	Tags        []string // Tag display names
	Banned      bool     // Item was banned from the workshop
	ModIDs      []string // Mod IDs declared in Description
	Maps        []string // Map folders declared in Description
	Children    []string // Workshop IDs of direct dependencies
	FileType    int      // steam.FileTypeMod, steam.FileTypeCollection, ...
	FileSize    uint64   // Download size in bytes
}

// FromPublishedFile converts an API record into a ModEntry.
func FromPublishedFile(f steam.PublishedFile) ModEntry {
	return ModEntry{
		WorkshopID:  f.PublishedFileID,
		Title:       f.Title,
		Creator:     f.Creator,
		Description: f.Description,
		Tags:        f.TagNames(),
		Banned:      f.Banned,
		ModIDs:      ParseModIDs(f.Description),
		Maps:        ParseMapFolders(f.Description),
		Children:    f.ChildIDs(),
		FileType:    f.FileType,
		FileSize:    uint64(f.FileSize),
	}
}

// HasModID reports whether the item declares modID.
func (e ModEntry) HasModID(modID string) bool {
	return slices.Contains(e.ModIDs, modID)
}

// IsMod reports whether the item is a plain mod rather than a collection.
func (e ModEntry) IsMod() bool {
	return e.FileType == steam.FileTypeMod
}

// IsCollection reports whether the item is a collection of other items.
func (e ModEntry) IsCollection() bool {
	return e.FileType == steam.FileTypeCollection
}

// URL returns the public workshop page of the item.
func (e ModEntry) URL() string {
	return WorkshopURL(e.WorkshopID)
}

// String returns "Title (id)".
func (e ModEntry) String() string {
	return fmt.Sprintf("%s (%s)", e.Title, e.WorkshopID)
}

// WorkshopURL returns the public workshop page for a published file ID.
func WorkshopURL(id string) string {
	return "https://steamcommunity.com/sharedfiles/filedetails/?id=" + id
}

var modIDRE = regexp.MustCompile(`(?m)Mod ID: (.+)$`)

// ParseModIDs extracts every "Mod ID: <value>" declaration from a workshop
// description, in order. Each occurrence yields one mod ID; surrounding
// whitespace (including a CR from CRLF text) is trimmed and blank values
// are skipped.
func ParseModIDs(description string) []string {
	var ids []string
	for _, m := range modIDRE.FindAllStringSubmatch(description, -1) {
		if id := strings.TrimSpace(m[1]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

var mapFolderRE = regexp.MustCompile(`(?m)Map Folder: (.+)$`)

// ParseMapFolders extracts the "Map Folder: <name>" declarations of a
// workshop description. Unlike mod IDs, repeated folders are listed once.
func ParseMapFolders(description string) []string {
	var folders []string
	for _, m := range mapFolderRE.FindAllStringSubmatch(description, -1) {
		if f := strings.TrimSpace(m[1]); f != "" && !slices.Contains(folders, f) {
			folders = append(folders, f)
		}
	}
	return folders
}

// Find returns the entry with the given workshop ID.
func Find(entries []ModEntry, id string) (ModEntry, bool) {
	for _, e := range entries {
		if e.WorkshopID == id {
			return e, true
		}
	}
	return ModEntry{}, false
}

// ChildIDs concatenates the Children of every entry in order. An ID named
// by several parents appears once per parent.
func ChildIDs(entries []ModEntry) []string {
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.Children...)
	}
	return ids
}
