package session_test

import (
	"testing"

	"github.com/skybingo/bingobot/internal/session"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		length, page, pageSize int
		want                   session.Chunk
	}{
		{0, 0, 5, session.Chunk{Start: 0, End: 0, Page: 0, TotalPages: 0}},
		{8, 0, 5, session.Chunk{Start: 0, End: 5, Page: 0, TotalPages: 2}},
		{25, 1, 25, session.Chunk{Start: 0, End: 25, Page: 0, TotalPages: 1}},
		{13, 2, 5, session.Chunk{Start: 10, End: 13, Page: 2, TotalPages: 3}},
		// Out-of-range pages clamp to the last page.
		{7, 3, 5, session.Chunk{Start: 5, End: 7, Page: 1, TotalPages: 2}},
	}

	for _, tt := range tests {
		got := session.Paginate(tt.length, tt.page, tt.pageSize)
		if got != tt.want {
			t.Errorf("Paginate(%d, %d, %d) = %+v, want %+v",
				tt.length, tt.page, tt.pageSize, got, tt.want)
		}
	}
}

func TestPaginateZeroPageSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Paginate with pageSize 0 should panic")
		}
	}()
	session.Paginate(15, 1, 0)
}
