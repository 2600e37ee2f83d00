package shape

import (
	"testing"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func providerFrame(t *testing.T) *frame.Frame {
	t.Helper()

	f, err := frame.New(
		&frame.Column{Name: "npi", Kind: frame.KindString, Values: []any{"1", "2", "3", "4"}},
		&frame.Column{Name: "last_name", Kind: frame.KindString, Values: []any{"Smith", "Smithers", "Jones", "SMITH"}},
		&frame.Column{Name: "categories_served", Kind: frame.KindString, Values: []any{"PrEP, ART", "ART", "PrEP", "PrEP"}},
		&frame.Column{Name: "total_claims", Kind: frame.KindInt, Values: []any{int64(5), int64(6), int64(7), int64(8)}},
	)
	require.NoError(t, err)

	return f
}

func npis(f *frame.Frame) []any {
	col, _ := f.Column("npi")
	return col.Values
}

func TestDirectoryFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter DirectoryFilter
		want   []any
	}{
		{
			name:   "no filter keeps everything",
			filter: DirectoryFilter{},
			want:   []any{"1", "2", "3", "4"},
		},
		{
			name:   "category membership",
			filter: DirectoryFilter{Category: "PrEP"},
			want:   []any{"1", "3", "4"},
		},
		{
			name:   "category is not a substring match",
			filter: DirectoryFilter{Category: "AR"},
			want:   []any{},
		},
		{
			name:   "search ignores case",
			filter: DirectoryFilter{Search: "smith"},
			want:   []any{"1", "2", "4"},
		},
		{
			name:   "search matches rendered numbers",
			filter: DirectoryFilter{Search: "7"},
			want:   []any{"3"},
		},
		{
			name:   "category and search compose conjunctively",
			filter: DirectoryFilter{Category: "PrEP", Search: "smith"},
			want:   []any{"1", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.CategoriesColumn = "categories_served"

			got, err := tt.filter.Apply(providerFrame(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, npis(got))
		})
	}
}

func TestDirectoryFilter_MissingCategoriesColumn(t *testing.T) {
	_, err := DirectoryFilter{Category: "PrEP", CategoriesColumn: "nope"}.Apply(providerFrame(t))
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestDirectoryFilter_Active(t *testing.T) {
	assert.False(t, DirectoryFilter{Search: "  "}.Active())
	assert.True(t, DirectoryFilter{Category: "ART"}.Active())
}
