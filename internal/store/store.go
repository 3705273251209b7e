// Package store persists recordings to disk and loads them back.
//
// The canonical on-disk form is a JSON array of records carrying a
// per-event "time_delta" in seconds. A legacy form carrying absolute
// "time" offsets also exists in the wild; the loader accepts both and
// normalizes to per-event deltas before anything reaches the player.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/tidwall/gjson"

	"macrorec/internal/event"
)

// ErrNotChronological marks a legacy absolute-time file whose timestamps go
// backwards; deltas cannot be derived from it.
var ErrNotChronological = errors.New("store: recording timestamps not in chronological order")

// record is the on-disk shape of one event. Pos and Scroll serialize as
// null when absent, matching the historical format.
type record struct {
	TimeDelta *float64   `json:"time_delta,omitempty"`
	Time      *float64   `json:"time,omitempty"` // legacy absolute offset
	Type      string     `json:"type"`
	Button    string     `json:"button"`
	Pos       *[2]int    `json:"pos"`
	Scroll    *scrollDir `json:"scroll_direction"`
	Pressed   []string   `json:"pressed_keys,omitempty"`
}

type scrollDir struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Save writes rec to path in the canonical delta form, atomically and
// durably: the file is fsynced and renamed into place, so a crash can never
// leave a half-written recording. Parent directories are created as needed.
func Save(path string, rec event.Recording) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create recordings dir: %w", err)
	}

	records := make([]record, len(rec))
	for i, ev := range rec {
		records[i] = encode(ev)
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("store: encode recording: %w", err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("store: create pending file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("store: write recording: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("store: replace recording file: %w", err)
	}
	return nil
}

// Load reads a recording from path, accepting either encoding.
func Load(path string) (event.Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read recording: %w", err)
	}
	return Decode(data)
}

// Decode parses recording JSON in either the canonical delta form or the
// legacy absolute-time form.
func Decode(data []byte) (event.Recording, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("store: decode recording: %w", err)
	}
	if len(records) == 0 {
		return event.Recording{}, nil
	}

	// Sniff the encoding off the first record. Absolute-time files carry
	// "time"; canonical files carry "time_delta".
	first := gjson.GetBytes(data, "0")
	legacy := !first.Get("time_delta").Exists() && first.Get("time").Exists()

	rec := make(event.Recording, 0, len(records))
	var prev float64
	for i, r := range records {
		ev := decode(r)

		switch {
		case legacy:
			if r.Time == nil {
				return nil, fmt.Errorf("store: record %d: missing time", i)
			}
			delta := *r.Time - prev
			if i == 0 {
				delta = *r.Time
			}
			if delta < 0 {
				return nil, fmt.Errorf("%w: record %d", ErrNotChronological, i)
			}
			prev = *r.Time
			ev.Delta = secondsToDuration(delta)
		case r.TimeDelta != nil:
			d := *r.TimeDelta
			if d < 0 {
				d = 0
			}
			ev.Delta = secondsToDuration(d)
		default:
			return nil, fmt.Errorf("store: record %d: missing time_delta", i)
		}

		rec = append(rec, ev)
	}
	return rec, nil
}

func encode(ev event.Recorded) record {
	delta := ev.Delta.Seconds()
	r := record{
		TimeDelta: &delta,
		Type:      ev.Type.String(),
		Button:    ev.Key.String(),
		Pressed:   ev.Held,
	}
	if ev.Pos != nil {
		r.Pos = &[2]int{ev.Pos.X, ev.Pos.Y}
	}
	if ev.Scroll != nil {
		r.Scroll = &scrollDir{DX: ev.Scroll.DX, DY: ev.Scroll.DY}
	}
	return r
}

func decode(r record) event.Recorded {
	// Unknown event types survive decoding as event.Invalid. That keeps
	// the fatal-on-playback contract with the player, which is where a
	// corrupted recording must surface.
	t, _ := event.ParseType(r.Type)

	ev := event.Recorded{
		Type: t,
		Key:  event.ParseKey(r.Button),
		Held: r.Pressed,
	}
	if r.Pos != nil {
		ev.Pos = &event.Point{X: r.Pos[0], Y: r.Pos[1]}
	}
	if r.Scroll != nil {
		ev.Scroll = &event.ScrollDelta{DX: r.Scroll.DX, DY: r.Scroll.DY}
	}
	return ev
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
