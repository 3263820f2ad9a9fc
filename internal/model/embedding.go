package model

const (
	EmbeddingTypeObject    = "object"
	EmbeddingTypeAnimation = "animation"
)

// Embedding is a vector for a catalog object or animation description.
type Embedding struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	CreatedAt string    `json:"created_at"`
}
