package export

import (
	"testing"

	"aiexport/pkg/selection"

	"github.com/stretchr/testify/assert"
)

func TestSingleDocumentName(t *testing.T) {
	assert.Equal(t, "proj_all.txt", SingleDocumentName("proj"))
	assert.Equal(t, "project_all.txt", SingleDocumentName(""))
}

func TestGroupFileName(t *testing.T) {
	tests := []struct {
		name     string
		groupKey string
		rootName string
		want     string
	}{
		{"simple subdir", "sub", "proj", "sub.txt"},
		{"nested path becomes dashes", "sub/deep", "proj", "sub-deep.txt"},
		{"root sentinel uses root name", selection.RootGroupKey, "proj", "proj.txt"},
		{"root sentinel without root name", selection.RootGroupKey, "", "root.txt"},
		{"unsafe characters replaced", "we!rd$name", "proj", "we_rd_name.txt"},
		{"safe punctuation kept", "lib (v2)", "proj", "lib (v2).txt"},
		{"leading and trailing punctuation trimmed", "..sub.", "proj", "sub.txt"},
		{"fully unsafe key falls back", "...", "proj", "group.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupFileName(tt.groupKey, tt.rootName))
		})
	}
}
