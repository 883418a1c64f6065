package items_test

import (
	"testing"

	"github.com/jrsteele09/go-shared-list/items"
	"github.com/stretchr/testify/require"
)

func TestDedup(t *testing.T) {
	rows := []items.ListItem{
		{ID: "a", Text: "Milk", CreatorName: "Anu"},
		{ID: "b", Text: "Bread"},
		{ID: "a", Text: "Milk", CreatorName: "Anu (second join row)"},
		{ID: "c", Text: "Eggs"},
		{ID: "b", Text: "Bread again"},
	}

	got := items.Dedup(rows)
	require.Len(t, got, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	require.Equal(t, "Anu", got[0].CreatorName, "first occurrence wins")
	require.Equal(t, "Bread", got[1].Text)
}

func TestDedup_Empty(t *testing.T) {
	require.Empty(t, items.Dedup(nil))
	require.NotNil(t, items.Dedup(nil))
}
