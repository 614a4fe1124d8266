package models

// Tag is a catalog entry articles can be labeled with.
type Tag struct {
	ID          string `json:"_id" db:"id"`
	Name        string `json:"nombre" db:"nombre"`
	Description string `json:"descripcion" db:"descripcion"`
}
