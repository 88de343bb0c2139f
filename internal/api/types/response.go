// internal/api/types/response.go
package types

// PaginatedResponse defines a generic structure for paginated API responses.
// T represents the type of data contained in the 'Data' slice.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
}

// NewPaginatedResponse wraps one page. A nil page is returned as an empty array.
func NewPaginatedResponse[T any](data []T, limit, offset int, total int64) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{Data: data, Limit: limit, Offset: offset, TotalCount: total}
}
