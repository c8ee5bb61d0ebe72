package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i + 1
	}
	return items
}

func TestTotalPagesIsCeiling(t *testing.T) {
	cases := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 5, 5},
		{26, 5, 6},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalPages(tc.total, tc.limit), "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestLastPageHoldsRemainder(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for _, limit := range []int{1, 3, 7, 10} {
			pages := TotalPages(total, limit)
			last := Paginate(seq(total), pages, limit)

			want := total % limit
			if want == 0 {
				want = limit
			}
			require.Len(t, last.Items, want, "total=%d limit=%d", total, limit)
			assert.Equal(t, total, last.Items[len(last.Items)-1])
		}
	}
}

func TestPaginateClampsPage(t *testing.T) {
	page := Paginate(seq(12), 99, 5)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, []int{11, 12}, page.Items)

	page = Paginate(seq(12), -1, 5)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, page.Items)
}

func TestPaginateDefaultsAndEmpty(t *testing.T) {
	page := Paginate(seq(15), 1, 0)
	assert.Equal(t, DefaultLimit, page.Limit)
	assert.Len(t, page.Items, DefaultLimit)
	assert.Equal(t, 2, page.TotalPages)

	page = Paginate(seq(500), 1, 1000)
	assert.Equal(t, MaxLimit, page.Limit)

	empty := Paginate([]int{}, 3, 10)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 0, empty.TotalPages)
	assert.Empty(t, empty.Items)
	assert.NotNil(t, empty.Items)
}
