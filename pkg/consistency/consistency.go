// Package consistency cross-checks enabled mod IDs against installed
// workshop items.
//
// The checks are advisory. They never fail and never modify their inputs;
// callers decide how to present the findings.
package consistency

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/pzmod/pkg/workshop"
)

// Kind classifies a Finding.
type Kind int

const (
	// UnknownModID is an enabled mod ID that no installed item declares.
	UnknownModID Kind = iota
	// UnusedModID is a mod ID declared by an installed item or one of its
	// dependencies that is not enabled.
	UnusedModID
	// MissingDependency is a dependency that is not among the installed items.
	MissingDependency
	// NotFoundItem is an installed workshop ID the service no longer knows.
	NotFoundItem
	// UnknownMap is a Map= entry that no installed item ships as a map folder.
	UnknownMap
	// ModUsedAsMap is an enabled mod ID that is a map folder missing from Map=.
	ModUsedAsMap
)

func (k Kind) String() string {
	switch k {
	case UnknownModID:
		return "unknown mod ID"
	case UnusedModID:
		return "unused mod ID"
	case MissingDependency:
		return "missing dependency"
	case NotFoundItem:
		return "item not found"
	case UnknownMap:
		return "unknown map"
	case ModUsedAsMap:
		return "mod used as map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Severity ranks findings for display.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Finding is one inconsistency.
type Finding struct {
	Kind     Kind
	Severity Severity
	// ModID is set for UnknownModID, UnusedModID and ModUsedAsMap.
	ModID string
	// Map is set for UnknownMap.
	Map string
	// Item is the owning item of an unused mod ID, the missing dependency or
	// the item that was not found. Items that could not be fetched carry
	// only their WorkshopID.
	Item *workshop.ModEntry
	// Dependents are the installed items requiring a missing dependency.
	Dependents []workshop.ModEntry
}

// String renders the finding as one line of plain text.
func (f Finding) String() string {
	switch f.Kind {
	case UnknownModID:
		return fmt.Sprintf("Unknown mod ID: '%s' (not found in WorkshopItems)", f.ModID)
	case UnusedModID:
		return fmt.Sprintf("Unused mod ID: '%s' - %s", f.ModID, f.Item)
	case MissingDependency:
		titles := make([]string, len(f.Dependents))
		for i, d := range f.Dependents {
			titles[i] = d.Title
		}
		return fmt.Sprintf("Missing dependency: %s, required by: %s", label(f.Item), strings.Join(titles, " and "))
	case NotFoundItem:
		return fmt.Sprintf("Could not fetch Workshop item %s (deleted, hidden or invalid ID)", f.Item.WorkshopID)
	case UnknownMap:
		return fmt.Sprintf("Map '%s' is not found in any Workshop item", f.Map)
	case ModUsedAsMap:
		return fmt.Sprintf("Mod ID used as map but not listed in Map=: '%s'", f.ModID)
	default:
		return f.Kind.String()
	}
}

// UnknownMods reports every enabled mod ID that no item declares.
func UnknownMods(enabled []string, items []workshop.ModEntry) []Finding {
	var out []Finding
	for _, id := range enabled {
		known := slices.ContainsFunc(items, func(e workshop.ModEntry) bool { return e.HasModID(id) })
		if !known {
			out = append(out, Finding{Kind: UnknownModID, Severity: Warning, ModID: id})
		}
	}
	return out
}

// UnusedMods reports every mod ID declared by items or children that is not
// enabled. Dependencies of children are not considered.
func UnusedMods(enabled []string, items, children []workshop.ModEntry) []Finding {
	var out []Finding
	for _, group := range [][]workshop.ModEntry{items, children} {
		for i := range group {
			item := &group[i]
			for _, id := range item.ModIDs {
				if !slices.Contains(enabled, id) {
					out = append(out, Finding{Kind: UnusedModID, Severity: Warning, ModID: id, Item: item})
				}
			}
		}
	}
	return out
}

// MissingDependencies reports every child ID of items that is not among
// items, naming all items that depend on it. The details come from children
// when the dependency could be fetched. A child listed more than once is
// reported once.
func MissingDependencies(items, children []workshop.ModEntry) []Finding {
	var out []Finding
	seen := make(map[string]bool)
	for _, id := range workshop.ChildIDs(items) {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, installed := workshop.Find(items, id); installed {
			continue
		}

		child, ok := workshop.Find(children, id)
		if !ok {
			child = workshop.ModEntry{WorkshopID: id}
		}
		var dependents []workshop.ModEntry
		for _, item := range items {
			if slices.Contains(item.Children, id) {
				dependents = append(dependents, item)
			}
		}
		out = append(out, Finding{
			Kind:       MissingDependency,
			Severity:   Error,
			Item:       &child,
			Dependents: dependents,
		})
	}
	return out
}

// NotFoundItems reports every installed workshop ID without a fetched item.
func NotFoundItems(installed []string, items []workshop.ModEntry) []Finding {
	var out []Finding
	for _, id := range installed {
		if _, ok := workshop.Find(items, id); !ok {
			out = append(out, Finding{Kind: NotFoundItem, Severity: Warning, Item: &workshop.ModEntry{WorkshopID: id}})
		}
	}
	return out
}

// BuiltinMaps ship with the game and need no workshop item.
var BuiltinMaps = []string{"Muldraugh, KY"}

// MapProblems reports Map= entries that no item provides and enabled mod IDs
// that name a map folder of an item without being listed in maps.
func MapProblems(enabled, maps []string, items []workshop.ModEntry) []Finding {
	var folders []string
	for _, item := range items {
		folders = append(folders, item.Maps...)
	}

	var out []Finding
	for _, m := range maps {
		if !slices.Contains(folders, m) && !slices.Contains(BuiltinMaps, m) {
			out = append(out, Finding{Kind: UnknownMap, Severity: Warning, Map: m})
		}
	}
	for _, id := range enabled {
		if slices.Contains(folders, id) && !slices.Contains(maps, id) {
			out = append(out, Finding{Kind: ModUsedAsMap, Severity: Warning, ModID: id})
		}
	}
	return out
}

// Input is the state Check inspects.
type Input struct {
	Enabled   []string            // Mods
	Installed []string            // WorkshopItems
	Maps      []string            // Map
	Items     []workshop.ModEntry // fetched installed items
	Children  []workshop.ModEntry // fetched direct dependencies of Items
}

// Check runs all scans: items that could not be fetched, unknown mods,
// unused mods, map problems, then missing dependencies.
func Check(in Input) []Finding {
	var out []Finding
	out = append(out, NotFoundItems(in.Installed, in.Items)...)
	out = append(out, UnknownMods(in.Enabled, in.Items)...)
	out = append(out, UnusedMods(in.Enabled, in.Items, in.Children)...)
	out = append(out, MapProblems(in.Enabled, in.Maps, in.Items)...)
	return append(out, MissingDependencies(in.Items, in.Children)...)
}

// Count returns the number of findings with the given severity.
func Count(findings []Finding, s Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

func label(e *workshop.ModEntry) string {
	if e.Title == "" {
		return "an unknown mod (" + e.WorkshopID + ")"
	}
	return e.String()
}
