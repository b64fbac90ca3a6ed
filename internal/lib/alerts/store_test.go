package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruamjai/ruamjai/internal/lib/geo"
)

func testAlert(id string) Alert {
	return Alert{
		ID:            id,
		Category:      CategoryGeneral,
		Severity:      SeverityMedium,
		Description:   "test alert " + id,
		Position:      geo.Point{Latitude: 13.7563, Longitude: 100.5018},
		CreatedAt:     time.Now(),
		ReporterLabel: "tester",
		Status:        StatusPending,
	}
}

func TestStore_AppendNewestFirst(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Append(testAlert("a")))
	require.NoError(t, store.Append(testAlert("b")))
	require.NoError(t, store.Append(testAlert("c")))

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "c", snapshot[0].ID, "newest alert should be first")
	assert.Equal(t, "b", snapshot[1].ID)
	assert.Equal(t, "a", snapshot[2].ID)
}

func TestStore_AppendDuplicateLeavesStoreUnchanged(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Append(testAlert("a")))
	require.NoError(t, store.Append(testAlert("b")))

	before := store.Snapshot()

	dup := testAlert("a")
	dup.Description = "different content, same id"
	err := store.Append(dup)

	require.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, before, store.Snapshot(), "failed append must not modify the store")
	assert.Equal(t, 2, store.Len())
}

func TestStore_UpsertStatus(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Append(testAlert("a")))

	updated := store.UpsertStatus("a", StatusAccepted)
	assert.True(t, updated)

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Equal(t, "test alert a", got.Description, "only status may change")
}

func TestStore_UpsertStatusUnknownIDIsNoOp(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Append(testAlert("a")))
	before := store.Snapshot()

	updated := store.UpsertStatus("missing", StatusResolved)

	assert.False(t, updated)
	assert.Equal(t, before, store.Snapshot(), "unknown id must leave the store byte-for-byte unchanged")
}

func TestStore_AllIsRestartable(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Append(testAlert("a")))
	require.NoError(t, store.Append(testAlert("b")))

	seq := store.All()

	var first []string
	for a := range seq {
		first = append(first, a.ID)
	}

	// A second pass over the same sequence starts from the beginning and
	// reflects the current store order.
	require.NoError(t, store.Append(testAlert("c")))
	var second []string
	for a := range seq {
		second = append(second, a.ID)
	}

	assert.Equal(t, []string{"b", "a"}, first)
	assert.Equal(t, []string{"c", "b", "a"}, second)
}

func TestStore_AllEarlyBreak(t *testing.T) {
	store := NewStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Append(testAlert(id)))
	}

	var seen int
	for range store.All() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestCategory_Validation(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid())
	}
	assert.False(t, Category("EARTHQUAKE").Valid())

	parsed, ok := ParseCategory("FIRE")
	assert.True(t, ok)
	assert.Equal(t, CategoryFire, parsed)

	_, ok = ParseCategory("fire")
	assert.False(t, ok, "categories are case sensitive")
}

func TestSeverity_Ordering(t *testing.T) {
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityCritical.Rank())
	assert.Equal(t, 0, Severity("BOGUS").Rank())
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
