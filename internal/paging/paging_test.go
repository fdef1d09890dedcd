package paging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	limits := Limits{DefaultSize: 10, MaxSize: 100}

	testCases := []struct {
		name       string
		page       string
		size       string
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{name: "empty input uses defaults", page: "", size: "", wantPage: 1, wantSize: 10, wantOffset: 0},
		{name: "page 3 size 10", page: "3", size: "10", wantPage: 3, wantSize: 10, wantOffset: 20},
		{name: "page 0 clamps to 1", page: "0", size: "10", wantPage: 1, wantSize: 10, wantOffset: 0},
		{name: "negative page clamps to 1", page: "-4", size: "5", wantPage: 1, wantSize: 5, wantOffset: 0},
		{name: "non-numeric page", page: "abc", size: "5", wantPage: 1, wantSize: 5, wantOffset: 0},
		{name: "zero size uses default", page: "2", size: "0", wantPage: 2, wantSize: 10, wantOffset: 10},
		{name: "negative size uses default", page: "1", size: "-5", wantPage: 1, wantSize: 10, wantOffset: 0},
		{name: "non-numeric size uses default", page: "1", size: "abc", wantPage: 1, wantSize: 10, wantOffset: 0},
		{name: "huge size clamps to max", page: "2", size: "10000", wantPage: 2, wantSize: 100, wantOffset: 100},
		{name: "whitespace is tolerated", page: " 2 ", size: " 20 ", wantPage: 2, wantSize: 20, wantOffset: 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := Normalize(tc.page, tc.size, limits)
			assert.Equal(t, tc.wantPage, w.Page)
			assert.Equal(t, tc.wantPage-1, w.Index)
			assert.Equal(t, tc.wantSize, w.Size)
			assert.Equal(t, tc.wantSize, w.Limit)
			assert.Equal(t, tc.wantOffset, w.Offset)
		})
	}
}

func TestNormalizeHugePageKeepsOffsetNonNegative(t *testing.T) {
	limits := Limits{DefaultSize: 20, MaxSize: 100}

	for _, page := range []string{"9223372036854775807", "1000000000000000000", "99999999999999999999"} {
		for _, size := range []string{"1", "10", "100", ""} {
			w := Normalize(page, size, limits)
			assert.GreaterOrEqual(t, w.Offset, 0, "page=%s size=%s", page, size)
			assert.GreaterOrEqual(t, w.Page, 1)
			assert.Equal(t, (w.Page-1)*w.Size, w.Offset)
		}
	}

	w := Normalize("9223372036854775807", "10", limits)
	assert.Equal(t, math.MaxInt/10, w.Page)

	w = NormalizeIndex("9223372036854775807", "10", limits)
	assert.GreaterOrEqual(t, w.Offset, 0)
	assert.Equal(t, math.MaxInt/10, w.Page, "huge index is capped, not wrapped to page 1")
}

func TestNormalizeIndex(t *testing.T) {
	limits := Limits{DefaultSize: 20, MaxSize: 200}

	w := NormalizeIndex("0", "", limits)
	assert.Equal(t, 1, w.Page)
	assert.Equal(t, 0, w.Offset)
	assert.Equal(t, 20, w.Size)

	w = NormalizeIndex("2", "50", limits)
	assert.Equal(t, 3, w.Page)
	assert.Equal(t, 2, w.Index)
	assert.Equal(t, 100, w.Offset)

	w = NormalizeIndex("nope", "500", limits)
	assert.Equal(t, 1, w.Page)
	assert.Equal(t, 200, w.Size)

	w = NormalizeIndex("-3", "10", limits)
	assert.Equal(t, 1, w.Page)
}

func TestConversions(t *testing.T) {
	assert.Equal(t, 0, ToZeroBased(1))
	assert.Equal(t, 4, ToZeroBased(5))
	assert.Equal(t, 0, ToZeroBased(0))
	assert.Equal(t, 1, ToOneBased(0))
	assert.Equal(t, 5, ToOneBased(4))
	assert.Equal(t, 1, ToOneBased(-1))

	for page := 1; page < 10; page++ {
		assert.Equal(t, page, ToOneBased(ToZeroBased(page)))
	}
}

func TestClampLimit(t *testing.T) {
	limits := Limits{DefaultSize: 10, MaxSize: 100}
	assert.Equal(t, 10, ClampLimit("", limits))
	assert.Equal(t, 10, ClampLimit("0", limits))
	assert.Equal(t, 25, ClampLimit("25", limits))
	assert.Equal(t, 100, ClampLimit("5000", limits))
}

func TestClampWithBrokenLimits(t *testing.T) {
	w := Clamp(1, 0, Limits{})
	assert.Equal(t, 1, w.Size)

	w = Clamp(1, 0, Limits{DefaultSize: 500, MaxSize: 50})
	assert.Equal(t, 50, w.Size)
}

func TestNewPage(t *testing.T) {
	limits := Limits{DefaultSize: 10, MaxSize: 100}

	t.Run("middle page", func(t *testing.T) {
		p := NewPage([]int{1, 2, 3}, 25, Normalize("2", "10", limits))
		assert.Equal(t, 3, p.PageCount)
		assert.Equal(t, 2, p.Page)
		assert.Equal(t, 1, p.PageIndex)
		assert.True(t, p.HasPrev)
		assert.True(t, p.HasNext)
	})

	t.Run("last page boundary", func(t *testing.T) {
		p := NewPage([]int{1}, 20, Normalize("2", "10", limits))
		assert.Equal(t, 2, p.PageCount)
		assert.True(t, p.HasPrev)
		assert.False(t, p.HasNext)
	})

	t.Run("empty result", func(t *testing.T) {
		p := NewPage[int](nil, 0, Normalize("", "", limits))
		assert.NotNil(t, p.Items)
		assert.Equal(t, 0, p.PageCount)
		assert.False(t, p.HasPrev)
		assert.False(t, p.HasNext)
	})
}
