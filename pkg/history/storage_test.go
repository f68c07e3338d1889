package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	store, err := NewStorage(path)
	require.NoError(t, err)
	require.Empty(t, store.List())

	require.NoError(t, store.Append(Record{
		SourceChain:      "sepolia",
		DestinationChain: "fuji",
		Amount:           "1000000",
		Method:           "direct",
		BurnTxHash:       "0xabc",
		MintTxHash:       "0xmint",
		Status:           "complete",
	}))
	require.NoError(t, store.Append(Record{
		SourceChain:      "fuji",
		DestinationChain: "sepolia",
		Amount:           "2500000",
		Method:           "relay",
		BurnTxHash:       "0xdef",
		GroupID:          42,
		ItemIDs:          []int64{7, 9},
		Status:           "failed",
	}))

	records := store.List()
	require.Len(t, records, 2)
	require.NotEmpty(t, records[0].ID)
	require.False(t, records[0].Timestamp.IsZero())
	require.Equal(t, "0xabc", records[0].BurnTxHash)
	require.Equal(t, []int64{7, 9}, records[1].ItemIDs)

	// A fresh instance reads the same records back
	reloaded, err := NewStorage(path)
	require.NoError(t, err)
	require.Len(t, reloaded.List(), 2)
	require.Equal(t, records[0].ID, reloaded.List()[0].ID)
}

func TestStorageMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	store, err := NewStorage(path)
	require.NoError(t, err)
	require.Empty(t, store.List())
}

func TestStorageRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewStorage(path)
	require.Error(t, err)
}

func TestStorageListReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(Record{Status: "complete"}))

	records := store.List()
	records[0].Status = "mutated"
	require.Equal(t, "complete", store.List()[0].Status)
}
