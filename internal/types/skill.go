package types

import "time"

// Skill is a stored skill file and its parsed metadata.
type Skill struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Filename      string    `json:"filename" example:"my-skill.ts"`
	FileSize      int       `json:"file_size"`
	Name          string    `json:"name" example:"My Skill"`
	Description   *string   `json:"description,omitempty"`
	Version       string    `json:"version" example:"1.0.0"`
	Author        *string   `json:"author,omitempty"`
	Content       string    `json:"content"`
	IsPublic      bool      `json:"is_public"`
	DownloadCount int64     `json:"download_count"`
	CloneCount    int64     `json:"clone_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SkillWithDetails is a skill with its tags and owner.
type SkillWithDetails struct {
	Skill
	Tags  []Tag     `json:"tags"`
	Owner OwnerView `json:"owner"`
}

// SkillMetadata is parsed from the marker comments at the top of a skill file.
type SkillMetadata struct {
	Name        string
	Description *string
	Version     string
	Author      *string
}

// CreateSkillRequest is the body of POST /api/skills.
type CreateSkillRequest struct {
	Content  string   `json:"content"`
	IsPublic bool     `json:"is_public"`
	Tags     []string `json:"tags,omitempty" example:"go,cli"`
}

// UpdateSkillRequest is the body of PUT /api/skills/{id}. A nil Tags leaves
// the tag set alone; an empty slice clears it.
type UpdateSkillRequest struct {
	Content  *string  `json:"content,omitempty"`
	IsPublic *bool    `json:"is_public,omitempty"`
	Tags     []string `json:"tags"`
}

// NewSkillParams is what the repository inserts.
type NewSkillParams struct {
	UserID   int64
	Filename string
	FileSize int
	Metadata SkillMetadata
	Content  string
	IsPublic bool
}

// UpdateSkillParams is the partial set of columns the repository writes.
type UpdateSkillParams struct {
	Filename *string
	FileSize *int
	Metadata *SkillMetadata
	Content  *string
	IsPublic *bool
}

// Empty reports whether no column would change.
func (p UpdateSkillParams) Empty() bool {
	return p.Content == nil && p.IsPublic == nil && p.Metadata == nil && p.Filename == nil && p.FileSize == nil
}
