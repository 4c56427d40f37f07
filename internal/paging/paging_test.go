package paging

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-api/internal/apperr"
)

var fields = SortFields{"id": "id", "name": "name"}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"defaults", Request{PageSize: 10}, false},
		{"known order", Request{PageSize: 5, OrderBy: "name"}, false},
		{"negative index", Request{PageIndex: -1, PageSize: 10}, true},
		{"zero size", Request{PageSize: 0}, true},
		{"too large", Request{PageSize: MaxPageSize + 1}, true},
		{"unknown order", Request{PageSize: 10, OrderBy: "password"}, true},
		{"offset overflow", Request{PageIndex: math.MaxInt / 50, PageSize: 100}, true},
		{"largest index", Request{PageIndex: math.MaxInt / 100, PageSize: 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(fields)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestOffsetAndColumn(t *testing.T) {
	req := Request{PageIndex: 3, PageSize: 20}
	assert.Equal(t, 60, req.Offset())
	assert.Equal(t, "id", req.Column(fields, "id"))

	req.OrderBy = "name"
	assert.Equal(t, "name", req.Column(fields, "id"))
}

func TestFromQuery(t *testing.T) {
	req, err := FromQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Request{PageSize: DefaultPageSize}, req)

	req, err = FromQuery(url.Values{
		"search":      {" urg "},
		"pageIndex":   {"2"},
		"pageSize":    {"25"},
		"orderBy":     {"name"},
		"isAscending": {"true"},
	})
	require.NoError(t, err)
	assert.Equal(t, Request{Search: "urg", PageIndex: 2, PageSize: 25, OrderBy: "name", IsAscending: true}, req)

	_, err = FromQuery(url.Values{"pageSize": {"ten"}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Out-of-range values parse; Validate rejects them.
	req, err = FromQuery(url.Values{"pageIndex": {"-1"}})
	require.NoError(t, err)
	assert.Error(t, req.Validate(fields))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%urg%", LikePattern("URG"))
	assert.Equal(t, `%50\%\_off%`, LikePattern("50%_off"))
}
