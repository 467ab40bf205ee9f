// SPDX-License-Identifier: MIT
//
// Package midiin reads Standard MIDI Files and reduces their note events to
// a timeline of sounding-note snapshots, one per instant the held set
// changes. The harmony package identifies chords from those snapshots.
package midiin

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"

	"earshot/internal/harmony"
)

// NoteChange is one point on the timeline: the notes held from At until the
// next change. An empty Notes slice means silence.
type NoteChange struct {
	At    time.Duration
	Notes []harmony.Note
}

// noteEvent is a flattened note-on or note-off with its absolute offset.
type noteEvent struct {
	at  time.Duration
	key uint8
	off bool
}

// ReadFile parses an SMF file and returns its note timeline.
func ReadFile(path string) (changes []NoteChange, err error) {
	// The SMF parser panics on some malformed files.
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			err = errors.New(r)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read midi file: %w", err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse midi file: %w", err)
	}
	return buildChanges(collectEvents(s)), nil
}

// collectEvents walks every track, converting tick deltas to absolute wall
// time via the file's tempo map. A note-on with velocity zero is the
// conventional running-status note-off and is treated as one.
func collectEvents(s *smf.SMF) []noteEvent {
	var events []noteEvent
	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)

			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				events = append(events, noteEvent{
					at:  time.Duration(s.TimeAt(absTicks)) * time.Microsecond,
					key: key,
					off: velocity == 0,
				})
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				events = append(events, noteEvent{
					at:  time.Duration(s.TimeAt(absTicks)) * time.Microsecond,
					key: key,
					off: true,
				})
			}
		}
	}
	return events
}

// buildChanges replays the merged event stream and records the held-note
// set at every instant it changes. Events are ordered by offset with
// note-offs first, so a note retriggered at the same instant stays held
// rather than flickering through silence.
func buildChanges(events []noteEvent) []NoteChange {
	if len(events) == 0 {
		return nil
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].off && !events[j].off
	})

	var changes []NoteChange
	pressed := make(map[uint8]bool)

	flush := func(at time.Duration) {
		notes := make([]harmony.Note, 0, len(pressed))
		for key := range pressed {
			notes = append(notes, harmony.NoteFromMIDI(int(key)))
		}
		sort.Slice(notes, func(i, j int) bool {
			return notes[i].MIDI() < notes[j].MIDI()
		})
		changes = append(changes, NoteChange{At: at, Notes: notes})
	}

	for i, evt := range events {
		if evt.off {
			delete(pressed, evt.key)
		} else {
			pressed[evt.key] = true
		}
		// Coalesce events sharing an offset into one snapshot.
		if i+1 < len(events) && events[i+1].at == evt.at {
			continue
		}
		flush(evt.at)
	}
	return changes
}
