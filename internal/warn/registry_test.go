package warn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct{ got []Warning }

func (r *recordingSink) Publish(w Warning) { r.got = append(r.got, w) }

func TestEmitDeliversByDefault(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink)
	fatal := r.Emit(Warning{CallerID: "c1", Category: CategoryParse, Message: "oops"})
	assert.False(t, fatal)
	require.Len(t, sink.got, 1)
	assert.Equal(t, "oops", sink.got[0].Message)
}

func TestEmitIgnoreDropsWarning(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink)
	r.SetFilter(CategoryParse, "c1", 0, ActionIgnore)
	r.Emit(Warning{CallerID: "c1", Category: CategoryParse, Message: "dropped"})
	assert.Empty(t, sink.got)
}

func TestEmitErrorEscalatesToFatal(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink)
	r.SetFilter(CategoryData, "c1", 0, ActionError)
	fatal := r.Emit(Warning{CallerID: "c1", Category: CategoryData, Message: "bad"})
	assert.True(t, fatal)
	require.Len(t, sink.got, 1)
}

func TestEmitOnceDeliversFirstOccurrenceOnly(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink)
	r.SetFilter(CategoryGeneral, "c1", 0, ActionOnce)
	r.Emit(Warning{CallerID: "c1", Category: CategoryGeneral, Message: "first"})
	r.Emit(Warning{CallerID: "c1", Category: CategoryGeneral, Message: "second"})
	require.Len(t, sink.got, 1)
	assert.Equal(t, "first", sink.got[0].Message)
}

func TestEmitMostSpecificFilterWins(t *testing.T) {
	sink := &recordingSink{}
	r := NewRegistry(sink)
	r.SetFilter(CategoryParse, "", 0, ActionIgnore)
	r.SetFilter(CategoryParse, "c1", 0, ActionAlways)
	r.Emit(Warning{CallerID: "c1", Category: CategoryParse, Message: "kept"})
	r.Emit(Warning{CallerID: "c2", Category: CategoryParse, Message: "dropped"})
	require.Len(t, sink.got, 1)
	assert.Equal(t, "kept", sink.got[0].Message)
}

func TestQueueSinkDropsOldestWhenFull(t *testing.T) {
	q := NewQueueSink(2)
	sub := q.Subscribe()
	q.Publish(Warning{Message: "1"})
	q.Publish(Warning{Message: "2"})
	q.Publish(Warning{Message: "3"})

	got := []string{(<-sub.C()).Message, (<-sub.C()).Message}
	assert.Equal(t, []string{"2", "3"}, got)
}

func TestQueueSinkCloseClosesChannel(t *testing.T) {
	q := NewQueueSink(1)
	sub := q.Subscribe()
	q.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)
}
