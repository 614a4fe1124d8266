package models

import (
	"time"
)

// Article is published, reader-visible content. Its id is immutable and it
// is owned by its author; content changes only land through an approved
// update request.
type Article struct {
	ID          string    `json:"_id" db:"id"`
	Title       string    `json:"titulo" db:"titulo"`
	Description string    `json:"descripcion" db:"descripcion"`
	Content     string    `json:"contenido_markdown" db:"contenido_markdown"`
	ImageURL    string    `json:"imagen_url" db:"imagen_url"`
	TagIDs      []string  `json:"tags" db:"tags"`
	AuthorID    string    `json:"autor_id" db:"autor_id"`
	CreatedAt   time.Time `json:"fecha_creacion" db:"fecha_creacion"`
	UpdatedAt   time.Time `json:"fecha_actualizacion" db:"fecha_actualizacion"`
}
