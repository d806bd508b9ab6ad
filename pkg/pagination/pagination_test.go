package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, DefaultLimit, NormalizeLimit(-5))
	require.Equal(t, 30, NormalizeLimit(30))
	require.Equal(t, MaxLimit, NormalizeLimit(500))
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/jobs?limit=10&offset=40", nil)
	params := FromRequest(r)
	require.Equal(t, 10, params.Limit)
	require.Equal(t, 40, params.Offset)

	r = httptest.NewRequest("GET", "/v1/jobs?limit=abc&offset=-2", nil)
	params = FromRequest(r)
	require.Equal(t, DefaultLimit, params.Limit)
	require.Equal(t, 0, params.Offset)
}

func TestNewPageLinks(t *testing.T) {
	r := httptest.NewRequest("GET", "http://api.test/v1/jobs?limit=10&offset=10", nil)
	page := NewPage(r, Params{Limit: 10, Offset: 10}, 25, []int{1, 2, 3})

	require.EqualValues(t, 25, page.Count)
	require.NotNil(t, page.Next)
	require.Contains(t, *page.Next, "offset=20")
	require.NotNil(t, page.Previous)
	require.NotContains(t, *page.Previous, "offset=")
	require.Len(t, page.Results, 3)
}

func TestNewPageEdges(t *testing.T) {
	r := httptest.NewRequest("GET", "http://api.test/v1/jobs", nil)

	page := NewPage[int](r, Params{Limit: 20, Offset: 0}, 5, nil)
	require.Nil(t, page.Next)
	require.Nil(t, page.Previous)
	require.NotNil(t, page.Results)
	require.Empty(t, page.Results)

	page = NewPage(r, Params{Limit: 20, Offset: 0}, 40, make([]int, 20))
	require.NotNil(t, page.Next)
	require.Contains(t, *page.Next, "offset=20")
	require.Nil(t, page.Previous)
}
