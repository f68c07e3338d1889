package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnpaidItemsFor(t *testing.T) {
	group := &Group{
		Items: []Item{
			{ID: 1, Name: "Cabin", Price: 100, Payer: "0xAlice"},
			{ID: 2, Name: "Dinner", Price: 50, Payer: "0xalice", HasPaid: true},
			{ID: 3, Name: "Gas", Price: 25, Payer: "0xALICE"},
			{ID: 4, Name: "Snacks", Price: 10, Payer: "0xBob"},
		},
	}

	items := group.UnpaidItemsFor("0xAlice")
	require.Len(t, items, 2)
	require.Equal(t, int64(1), items[0].ID)
	require.Equal(t, int64(3), items[1].ID)

	require.Empty(t, group.UnpaidItemsFor("0xCarol"))
}

func TestTotalOwedAndItemIDs(t *testing.T) {
	items := []Item{
		{ID: 7, Price: 120_000_000},
		{ID: 9, Price: 85_500_000},
	}
	require.Equal(t, big.NewInt(205_500_000), TotalOwed(items))
	require.Equal(t, []int64{7, 9}, ItemIDs(items))
	require.Equal(t, big.NewInt(0), TotalOwed(nil))
}
