package skills

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	content := strings.Join([]string{
		"/**",
		" * @name Git Helper",
		" * @description Wraps common git commands",
		" * @version 2.1.0",
		" * @author Jane Doe",
		" */",
		"export const run = () => {}",
	}, "\n")

	meta := ParseMetadata(content)
	assert.Equal(t, "Git Helper", meta.Name)
	require.NotNil(t, meta.Description)
	assert.Equal(t, "Wraps common git commands", *meta.Description)
	assert.Equal(t, "2.1.0", meta.Version)
	require.NotNil(t, meta.Author)
	assert.Equal(t, "Jane Doe", *meta.Author)
	assert.Equal(t, "git-helper.ts", Filename(meta.Name))
}

func TestParseMetadataDefaults(t *testing.T) {
	meta := ParseMetadata("console.log('hi')")
	assert.Equal(t, "Untitled Skill", meta.Name)
	assert.Equal(t, "1.0.0", meta.Version)
	assert.Nil(t, meta.Description)
	assert.Nil(t, meta.Author)
	assert.Equal(t, "untitled-skill.ts", Filename(meta.Name))
}

func TestParseMetadataEmptyMarkersStayNil(t *testing.T) {
	meta := ParseMetadata("/**\n * @name Tool\n * @description\n * @author */\nrun()")
	assert.Equal(t, "Tool", meta.Name)
	assert.Nil(t, meta.Description)
	assert.Nil(t, meta.Author)
}

func TestParseMetadataOnlyScansHead(t *testing.T) {
	lines := make([]string, 25)
	for i := range lines {
		lines[i] = "// filler"
	}
	lines[22] = "// @name Too Late"
	assert.Equal(t, "Untitled Skill", ParseMetadata(strings.Join(lines, "\n")).Name)

	lines[19] = "// @name Just In Time"
	assert.Equal(t, "Just In Time", ParseMetadata(strings.Join(lines, "\n")).Name)
}

func TestParseMetadataInlineComment(t *testing.T) {
	meta := ParseMetadata("/** @name  Inline   Skill */\n// @version")
	assert.Equal(t, "Inline   Skill", meta.Name)
	assert.Equal(t, "1.0.0", meta.Version, "empty version keeps the default")
	assert.Equal(t, "inline-skill.ts", Filename(meta.Name))
}
