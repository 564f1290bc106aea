package workshop

import (
	"slices"
	"testing"

	"github.com/matzehuels/pzmod/pkg/steam"
)

func TestParseModIDs(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want []string
	}{
		{"none", "A plain description", nil},
		{"single", "Adds cars.\nMod ID: cars", []string{"cars"}},
		{"multiple", "Workshop ID: 1\nMod ID: a\nsome text\nMod ID: b\n", []string{"a", "b"}},
		{"crlf", "Mod ID: a\r\nMod ID: b\r\n", []string{"a", "b"}},
		{"inline", "Requires Mod ID: core", []string{"core"}},
		{"keeps spaces inside", "Mod ID: My Mod", []string{"My Mod"}},
		{"blank value skipped", "Mod ID:  \nMod ID: x", []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseModIDs(tt.desc); !slices.Equal(got, tt.want) {
				t.Errorf("ParseModIDs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMapFolders(t *testing.T) {
	desc := "Workshop ID: 1\r\nMod ID: riverside\r\nMap Folder: Riverside East\r\nMap Folder: Riverside East\r\nMap Folder: Docks\n"
	if got := ParseMapFolders(desc); !slices.Equal(got, []string{"Riverside East", "Docks"}) {
		t.Errorf("ParseMapFolders() = %q", got)
	}
	if got := ParseMapFolders("Mod ID: x"); got != nil {
		t.Errorf("ParseMapFolders() = %q, want nil", got)
	}
}

func TestFromPublishedFile(t *testing.T) {
	e := FromPublishedFile(steam.PublishedFile{
		Result:          steam.ResultOK,
		PublishedFileID: "2392709985",
		Title:           "Tsar's Common Library",
		Description:     "Mod ID: tsarslib\nMap Folder: Tsarville",
		FileType:        steam.FileTypeMod,
		FileSize:        1024,
		Tags:            []steam.Tag{{Tag: "Framework", DisplayName: "Framework"}},
		Children:        []steam.Child{{PublishedFileID: "1"}, {PublishedFileID: "2"}},
	})

	if e.WorkshopID != "2392709985" || e.Title != "Tsar's Common Library" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if !e.HasModID("tsarslib") || e.HasModID("other") {
		t.Errorf("ModIDs = %v", e.ModIDs)
	}
	if !slices.Equal(e.Maps, []string{"Tsarville"}) {
		t.Errorf("Maps = %v", e.Maps)
	}
	if !slices.Equal(e.Children, []string{"1", "2"}) {
		t.Errorf("Children = %v", e.Children)
	}
	if !slices.Equal(e.Tags, []string{"Framework"}) {
		t.Errorf("Tags = %v", e.Tags)
	}
	if !e.IsMod() {
		t.Error("IsMod() = false")
	}
	if e.FileSize != 1024 {
		t.Errorf("FileSize = %d", e.FileSize)
	}
	if got := e.String(); got != "Tsar's Common Library (2392709985)" {
		t.Errorf("String() = %q", got)
	}
	if got := e.URL(); got != "https://steamcommunity.com/sharedfiles/filedetails/?id=2392709985" {
		t.Errorf("URL() = %q", got)
	}
}

func TestFindAndChildIDs(t *testing.T) {
	entries := []ModEntry{
		{WorkshopID: "1", Children: []string{"3"}},
		{WorkshopID: "2", Children: []string{"3", "4"}},
	}
	if e, ok := Find(entries, "2"); !ok || e.WorkshopID != "2" {
		t.Errorf("Find(2) = %v, %v", e, ok)
	}
	if _, ok := Find(entries, "5"); ok {
		t.Error("Find(5) should miss")
	}
	if got := ChildIDs(entries); !slices.Equal(got, []string{"3", "3", "4"}) {
		t.Errorf("ChildIDs() = %v", got)
	}
}
