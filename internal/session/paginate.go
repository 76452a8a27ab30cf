package session

// Chunk describes one page of a list: the half-open index range to render,
// the clamped page number and the page count.
type Chunk struct {
	Start      int
	End        int
	Page       int
	TotalPages int
}

// Paginate slices a list of the given length into pages, clamping an
// out-of-range page to the last one. Panics if pageSize is not positive.
func Paginate(length, page, pageSize int) Chunk {
	if pageSize <= 0 {
		panic("pageSize must be greater than 0")
	}

	totalPages := (length + pageSize - 1) / pageSize

	clamped := 0
	if totalPages > 0 {
		clamped = min(page, totalPages-1)
	}

	start := clamped * pageSize
	end := min(start+pageSize, length)

	return Chunk{
		Start:      start,
		End:        end,
		Page:       start / pageSize,
		TotalPages: totalPages,
	}
}
