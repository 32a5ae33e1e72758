package response_test

import (
	"testing"

	"github.com/Kyz7/portfolio/internal/response"
	"github.com/stretchr/testify/assert"
)

func TestCalculateMeta(t *testing.T) {
	cases := []struct {
		page, limit int
		total       int64
		wantPages   int64
	}{
		{1, 12, 0, 0},
		{1, 12, 12, 1},
		{2, 12, 13, 2},
		{1, 5, 11, 3},
	}
	for _, tc := range cases {
		meta := response.CalculateMeta(tc.page, tc.limit, tc.total)
		assert.Equal(t, tc.wantPages, meta.TotalPages)
		assert.Equal(t, tc.total, meta.Total)
		assert.Equal(t, tc.page, meta.Page)
	}
}
