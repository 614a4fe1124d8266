package models

import (
	"time"
)

// PendingArticle holds unpublished article content. While Draft is true it
// is the author's private scratch space, mutable through auto-save. Pushing
// flips Draft to false exactly once; from then on the record is the
// immutable snapshot a review request refers to. Rejection or cancellation
// flips Draft back to true so the author can resume editing the same
// content.
type PendingArticle struct {
	ID                string      `json:"_id" db:"id"`
	Title             string      `json:"titulo" db:"titulo"`
	Description       string      `json:"descripcion" db:"descripcion"`
	Content           string      `json:"contenido_markdown" db:"contenido_markdown"`
	ImageURL          string      `json:"imagen_url" db:"imagen_url"`
	TagIDs            []string    `json:"tags" db:"tags"`
	AuthorID          string      `json:"autor_id" db:"autor_id"`
	Kind              RequestKind `json:"tipo" db:"tipo"` // KindNewArticle or KindUpdateArticle
	OriginalArticleID string      `json:"id_articulo_original,omitempty" db:"id_articulo_original"`
	Draft             bool        `json:"borrador" db:"borrador"`
	CreatedAt         time.Time   `json:"fecha_creacion" db:"fecha_creacion"`
	SubmittedAt       *time.Time  `json:"fecha_envio,omitempty" db:"fecha_envio"`
}

// Empty reports whether the record carries no content at all. Auto-save
// never persists an empty payload.
func (p *PendingArticle) Empty() bool {
	return p.Title == "" && p.Description == "" && p.Content == ""
}
