// SPDX-License-Identifier: MIT
package midiin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"earshot/internal/harmony"
)

func noteNames(notes []harmony.Note) []string {
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = n.Name()
	}
	return names
}

func TestBuildChangesEmpty(t *testing.T) {
	assert.Empty(t, buildChanges(nil))
}

func TestBuildChangesSingleNote(t *testing.T) {
	events := []noteEvent{
		{at: 0, key: 69},
		{at: time.Second, key: 69, off: true},
	}
	changes := buildChanges(events)

	assert := assert.New(t)
	if !assert.Len(changes, 2) {
		return
	}
	assert.Equal(changes[0].At, time.Duration(0))
	assert.Equal(noteNames(changes[0].Notes), []string{"A4"})
	assert.Equal(changes[1].At, time.Second)
	assert.Empty(changes[1].Notes)
}

func TestBuildChangesCoalescesSimultaneousEvents(t *testing.T) {
	// A C major triad struck at once yields one snapshot, not three.
	events := []noteEvent{
		{at: 0, key: 60},
		{at: 0, key: 64},
		{at: 0, key: 67},
		{at: time.Second, key: 60, off: true},
		{at: time.Second, key: 64, off: true},
		{at: time.Second, key: 67, off: true},
	}
	changes := buildChanges(events)

	assert := assert.New(t)
	if !assert.Len(changes, 2) {
		return
	}
	assert.Equal(noteNames(changes[0].Notes), []string{"C4", "E4", "G4"})
	assert.Empty(changes[1].Notes)
}

func TestBuildChangesSortsNotesByPitch(t *testing.T) {
	events := []noteEvent{
		{at: 0, key: 67},
		{at: 0, key: 60},
		{at: 0, key: 64},
	}
	changes := buildChanges(events)
	if assert.Len(t, changes, 1) {
		assert.Equal(t, noteNames(changes[0].Notes), []string{"C4", "E4", "G4"})
	}
}

func TestBuildChangesRetriggerAtSameInstant(t *testing.T) {
	// Note-off and note-on for the same key at the same offset: the off is
	// applied first, so the key stays held in that instant's snapshot.
	events := []noteEvent{
		{at: 0, key: 60},
		{at: time.Second, key: 60, off: true},
		{at: time.Second, key: 60},
	}
	changes := buildChanges(events)

	assert := assert.New(t)
	if !assert.Len(changes, 2) {
		return
	}
	assert.Equal(noteNames(changes[1].Notes), []string{"C4"})
}

func TestBuildChangesOrdersByOffset(t *testing.T) {
	// Events arrive track by track, not in time order.
	events := []noteEvent{
		{at: 2 * time.Second, key: 64},
		{at: 0, key: 60},
		{at: time.Second, key: 62},
	}
	changes := buildChanges(events)

	assert := assert.New(t)
	if !assert.Len(changes, 3) {
		return
	}
	assert.Equal(changes[0].At, time.Duration(0))
	assert.Equal(noteNames(changes[0].Notes), []string{"C4"})
	assert.Equal(noteNames(changes[1].Notes), []string{"C4", "D4"})
	assert.Equal(noteNames(changes[2].Notes), []string{"C4", "D4", "E4"})
}

func TestBuildChangesProgression(t *testing.T) {
	// C major for a second, then A minor.
	events := []noteEvent{
		{at: 0, key: 60},
		{at: 0, key: 64},
		{at: 0, key: 67},
		{at: time.Second, key: 64, off: true},
		{at: time.Second, key: 67, off: true},
		{at: time.Second, key: 57},
		{at: time.Second, key: 64},
	}
	changes := buildChanges(events)

	assert := assert.New(t)
	if !assert.Len(changes, 2) {
		return
	}

	id := harmony.NewIdentifier()
	first, ok := id.Identify(changes[0].Notes)
	if assert.True(ok) {
		assert.Equal(first.Name, "C")
	}
	assert.Equal(noteNames(changes[1].Notes), []string{"A3", "C4", "E4"})
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile("testdata/does-not-exist.mid")
	assert.Error(t, err)
}
