package dto

// List is the envelope for every collection response.
type List[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewList wraps items, never emitting a null array.
func NewList[T any](items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items, Total: len(items)}
}

// Error is the body of every failed request.
type Error struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
