package skills

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/skill-registry/internal/types"
)

const (
	defaultSkillName = "Untitled Skill"
	defaultVersion   = "1.0.0"
	// Only the head of a file is scanned for markers.
	metadataLines = 20
	skillFileExt  = ".ts"
)

var (
	metadataMarkers = []string{"@name", "@description", "@version", "@author"}
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// ParseMetadata reads the @name, @description, @version and @author markers
// from the first lines of a skill file. The first marker found on a line wins.
func ParseMetadata(content string) types.SkillMetadata {
	meta := types.SkillMetadata{Name: defaultSkillName, Version: defaultVersion}

	lines := strings.SplitN(content, "\n", metadataLines+1)
	if len(lines) > metadataLines {
		lines = lines[:metadataLines]
	}

	for _, line := range lines {
		for _, marker := range metadataMarkers {
			value, ok := markerValue(line, marker)
			if !ok {
				continue
			}
			switch marker {
			case "@name":
				if value != "" {
					meta.Name = value
				}
			case "@description":
				if value != "" {
					meta.Description = &value
				}
			case "@version":
				if value != "" {
					meta.Version = value
				}
			case "@author":
				if value != "" {
					meta.Author = &value
				}
			}
			break
		}
	}
	return meta
}

// markerValue returns the text after marker, up to a repeat of the marker or
// a closing comment.
func markerValue(line, marker string) (string, bool) {
	_, rest, ok := strings.Cut(line, marker)
	if !ok {
		return "", false
	}
	rest, _, _ = strings.Cut(rest, marker)
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimSuffix(rest, "*/"))
	return rest, true
}

// Filename derives the stored file name from a skill name.
func Filename(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-") + skillFileExt
}
