package steam

import (
	"encoding/json"
	"errors"
	"strconv"
)

// ResultOK is the per-item result code for a published file that exists.
const ResultOK = 1

// Workshop file types reported in PublishedFile.FileType.
const (
	FileTypeMod        = 0
	FileTypeCollection = 2
)

// PublishedFile is one record of the publishedfiledetails list.
// Only the fields pzmod reads are decoded.
type PublishedFile struct {
	Result          int      `json:"result"`
	PublishedFileID string   `json:"publishedfileid"`
	Creator         string   `json:"creator,omitempty"`
	Title           string   `json:"title,omitempty"`
	Description     string   `json:"file_description,omitempty"`
	FileType        int      `json:"file_type"`
	FileSize        ItemSize `json:"file_size"`
	Banned          bool     `json:"banned,omitempty"`
	Tags            []Tag    `json:"tags,omitempty"`
	Children        []Child  `json:"children,omitempty"`
}

// Tag is a workshop tag. DisplayName is empty for some older items.
type Tag struct {
	Tag         string `json:"tag"`
	DisplayName string `json:"display_name"`
}

// Name returns the display name, falling back to the raw tag.
func (t Tag) Name() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Tag
}

// Child references a direct dependency of a published file.
type Child struct {
	PublishedFileID string `json:"publishedfileid"`
	FileType        int    `json:"file_type"`
}

// ChildIDs returns the workshop IDs of f's direct dependencies in order.
func (f PublishedFile) ChildIDs() []string {
	ids := make([]string, len(f.Children))
	for i, c := range f.Children {
		ids[i] = c.PublishedFileID
	}
	return ids
}

// TagNames returns the display names of f's tags in order.
func (f PublishedFile) TagNames() []string {
	names := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		names = append(names, t.Name())
	}
	return names
}

// ItemSize is a file size the API encodes either as a number or as a
// numeric string.
type ItemSize uint64

// UnmarshalJSON accepts 123 and "123".
func (s *ItemSize) UnmarshalJSON(b []byte) error {
	var n uint64
	if err := json.Unmarshal(b, &n); err == nil {
		*s = ItemSize(n)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("file_size: expected a string or an integer")
	}
	if str == "" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return err
	}
	*s = ItemSize(n)
	return nil
}

type detailsEnvelope struct {
	Response struct {
		PublishedFileDetails []PublishedFile `json:"publishedfiledetails"`
		Error                string          `json:"error"`
	} `json:"response"`
}
