package models

// ContentBlock is one element of the JSON array stored in lesson
// descriptions and instructor introductions.
type ContentBlock struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

const (
	BlockTypeMarkdown = "markdown"
	BlockTypePDF      = "pdf"
	BlockTypeImage    = "image"
	BlockTypeVideo    = "video"
)

// IsFileBlock reports whether blocks of this type carry an uploaded file in Content.
func IsFileBlock(blockType string) bool {
	switch blockType {
	case BlockTypePDF, BlockTypeImage, BlockTypeVideo:
		return true
	}
	return false
}
