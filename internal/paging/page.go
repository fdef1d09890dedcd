package paging

// Page is the response envelope for paged listings. Page is always 1-based and
// PageIndex is the same position 0-based, regardless of what the caller sent.
type Page[T any] struct {
	Items     []T   `json:"items"`
	Total     int64 `json:"total"`
	Page      int   `json:"page"`
	PageIndex int   `json:"pageIndex"`
	PageSize  int   `json:"pageSize"`
	PageCount int   `json:"pageCount"`
	HasPrev   bool  `json:"hasPrev"`
	HasNext   bool  `json:"hasNext"`
}

func NewPage[T any](items []T, total int64, w Window) Page[T] {
	if items == nil {
		items = []T{}
	}

	pageCount := 0
	if total > 0 && w.Size > 0 {
		pageCount = int((total + int64(w.Size) - 1) / int64(w.Size))
	}

	return Page[T]{
		Items:     items,
		Total:     total,
		Page:      w.Page,
		PageIndex: w.Index,
		PageSize:  w.Size,
		PageCount: pageCount,
		HasPrev:   w.Page > 1,
		HasNext:   w.Page < pageCount,
	}
}
