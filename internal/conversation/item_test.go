package conversation

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"chatapp-client/internal/chaterr"

	"github.com/stretchr/testify/assert"
)

var tenOClock = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func item(id, author int64, at time.Time) Item {
	return Item{ID: id, Author: author, Content: "hi", CreatedAt: at}
}

func ids(items []Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestMergeDirectScenario(t *testing.T) {
	sent := []Item{item(1, 1, tenOClock)}
	received := []Item{item(2, 2, tenOClock.Add(-time.Minute))}

	merged := Merge(sent, received)

	assert.Equal(t, []int64{2, 1}, ids(merged))
}

func TestMergeDropsRepeatedIdentifiers(t *testing.T) {
	a := []Item{item(1, 1, tenOClock), item(3, 1, tenOClock.Add(2*time.Second))}
	b := []Item{item(2, 2, tenOClock.Add(time.Second)), item(3, 1, tenOClock.Add(2*time.Second))}

	assert.Equal(t, []int64{1, 2, 3}, ids(Merge(a, b)))
}

func TestMergeBreaksTimestampTiesByIdentifier(t *testing.T) {
	a := []Item{item(9, 1, tenOClock)}
	b := []Item{item(4, 2, tenOClock)}

	assert.Equal(t, []int64{4, 9}, ids(Merge(a, b)))
	assert.Equal(t, []int64{4, 9}, ids(Merge(b, a)))
}

func TestMergeIgnoresInputOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	var all []Item
	for i := range 40 {
		// a handful of timestamps so ties are common
		all = append(all, item(int64(i+1), int64(i%3), tenOClock.Add(time.Duration(i%7)*time.Second)))
	}

	want := Merge(all)
	assert.True(t, slices.IsSortedFunc(want, Compare))

	for range 20 {
		shuffled := slices.Clone(all)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		// two halves sharing up to five items
		split := rng.IntN(len(shuffled))
		left := shuffled[:min(split+5, len(shuffled))]
		right := shuffled[split:]

		assert.Equal(t, ids(want), ids(Merge(left, right)))
	}
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge())
	assert.Empty(t, Merge(nil, []Item{}))
}

func TestTargetKey(t *testing.T) {
	assert.Equal(t, "channel:7", Channel(7).Key())
	assert.Equal(t, "dm:1:2", Direct(1, 2).Key())
	assert.Equal(t, Direct(1, 2).Key(), Direct(2, 1).Key())
	assert.NotEqual(t, Channel(1).Key(), Direct(1, 1).Key())
}

func TestTargetValidate(t *testing.T) {
	assert.NoError(t, Channel(7).Validate())
	assert.NoError(t, Direct(1, 2).Validate())

	for _, target := range []Target{{}, Channel(0), Direct(1, 0), Direct(0, 2), Direct(3, 3), {Mode: "group", ChannelID: 1}} {
		assert.ErrorIs(t, target.Validate(), chaterr.ErrInvalid, target)
	}
}

func TestNewViewMarksRunStarts(t *testing.T) {
	items := []Item{
		item(1, 1, tenOClock),
		item(2, 1, tenOClock.Add(time.Minute)),
		item(3, 2, tenOClock.Add(2*time.Minute)),
	}

	view := newView(Channel(7), items, 1, tenOClock)

	assert.Equal(t, []bool{true, false, true}, view.RunStarts)
	assert.Equal(t, "channel:7", view.Key)
	assert.True(t, view.Contains(2))
	assert.False(t, view.Contains(4))
}
