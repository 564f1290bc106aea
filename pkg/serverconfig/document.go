package serverconfig

import (
	"slices"
	"strings"

	"github.com/matzehuels/pzmod/pkg/errors"
)

// Well-known config keys.
const (
	KeyPublicName        = "PublicName"
	KeyPublicDescription = "PublicDescription"
	KeyPublic            = "Public"
	KeyPassword          = "Password"
	KeyMaxPlayers        = "MaxPlayers"
	KeyMods              = "Mods"
	KeyWorkshopItems     = "WorkshopItems"
	KeyMap               = "Map"
)

// RequiredKeys must be present for a document to be valid.
var RequiredKeys = []string{KeyPublicName, KeyMods, KeyWorkshopItems}

// Entry is one key of a document together with the comment lines written
// directly above it.
type Entry struct {
	Key      string
	Comments []string
	Value    Value
}

// Document is an ordered, comment-preserving server config.
//
// Keys are case-sensitive and unique; iteration order is file order, with
// keys added by Set appended at the end.
type Document struct {
	entries []Entry
	index   map[string]int
	eol     string
}

// New creates an empty document using "\n" line endings. It is not valid
// until the required keys are set.
func New() *Document {
	return &Document{index: make(map[string]int), eol: "\n"}
}

// Validate returns INVALID_CONFIG if a required key is missing.
func (d *Document) Validate() error {
	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := d.index[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid server config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (Value, bool) {
	i, ok := d.index[key]
	if !ok {
		return Value{}, false
	}
	return d.entries[i].Value, true
}

// GetString returns the rendered value of key, or "" when absent.
func (d *Document) GetString(key string) string {
	v, _ := d.Get(key)
	return v.String()
}

// Set replaces the value of key, keeping its comments and position. A new
// key is appended without comments.
func (d *Document) Set(key string, v Value) {
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = v
		return
	}
	d.put(Entry{Key: key, Value: v})
}

// put stores e. An existing key takes the new value and comments but keeps
// its original position.
func (d *Document) put(e Entry) {
	if i, ok := d.index[e.Key]; ok {
		d.entries[i].Value = e.Value
		d.entries[i].Comments = e.Comments
		return
	}
	d.index[e.Key] = len(d.entries)
	d.entries = append(d.entries, e)
}

// Entry returns a copy of the entry for key.
func (d *Document) Entry(key string) (Entry, bool) {
	i, ok := d.index[key]
	if !ok {
		return Entry{}, false
	}
	e := d.entries[i]
	e.Comments = slices.Clone(e.Comments)
	return e, true
}

// Keys returns the keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the number of keys.
func (d *Document) Len() int { return len(d.entries) }

// LineEnding returns the terminator used by Serialize.
func (d *Document) LineEnding() string { return d.eol }

// Serialize renders the document. Every entry becomes its comment lines,
// the key=value line and one empty line, each ended by the document's line
// terminator.
func (d *Document) Serialize() string {
	var b strings.Builder
	for _, e := range d.entries {
		for _, c := range e.Comments {
			b.WriteString(strings.TrimRight(c, "\r\n"))
			b.WriteString(d.eol)
		}
		b.WriteString(e.Key)
		b.WriteByte('=')
		b.WriteString(e.Value.String())
		b.WriteString(d.eol)
		b.WriteString(d.eol)
	}
	return b.String()
}

// Equal reports whether d and o hold the same keys, comments and values in
// the same order.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i, e := range d.entries {
		f := o.entries[i]
		if e.Key != f.Key || !e.Value.Equal(f.Value) || !slices.Equal(e.Comments, f.Comments) {
			return false
		}
	}
	return true
}
