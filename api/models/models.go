package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/local/coursebuilder/api/elements"
)

// Course is one authored course. Elements holds the element collection as
// JSON exactly as it was saved, unknown style and metadata keys included.
type Course struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Template    string         `json:"template,omitempty"`
	Elements    datatypes.JSON `json:"elements"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ElementList decodes and validates the stored elements.
func (c *Course) ElementList() ([]elements.Element, error) {
	if len(c.Elements) == 0 {
		return []elements.Element{}, nil
	}
	list, err := elements.Decode(c.Elements)
	if err != nil {
		return nil, fmt.Errorf("failed to decode course %s: %w", c.ID, err)
	}
	return list, nil
}

// SetElements encodes list into the Elements column.
func (c *Course) SetElements(list []elements.Element) error {
	data, err := elements.Encode(list)
	if err != nil {
		return fmt.Errorf("failed to encode course %s: %w", c.ID, err)
	}
	c.Elements = datatypes.JSON(data)
	return nil
}

// SourceChunk is a piece of text extracted from an uploaded PDF, used as
// extra context for quiz generation.
type SourceChunk struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CourseID  string    `gorm:"index" json:"course_id"`
	FileName  string    `json:"file_name"`
	Content   string    `json:"content"`
	ChunkNum  int       `json:"chunk_num"`
	CreatedAt time.Time `json:"created_at"`
}

// AutoMigrate runs all migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Course{},
		&SourceChunk{},
	)
}
