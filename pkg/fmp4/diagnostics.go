package fmp4

import (
	"log/slog"
	"sync/atomic"

	"m7s.live/player/pkg"
	"m7s.live/player/pkg/codec"
)

type EventKind uint8

const (
	EventError EventKind = iota
	EventCodec
	EventResolution
	EventChannelMismatch
)

func (k EventKind) String() string {
	switch k {
	case EventError:
		return "error"
	case EventCodec:
		return "codec"
	case EventResolution:
		return "resolution"
	case EventChannelMismatch:
		return "channel-mismatch"
	}
	return "unknown"
}

// Event is a fire-and-forget notification about a stream. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind    EventKind
	TrackID uint32
	Err     error
	Codec   codec.FourCC
	Info    string
	Width   int
	Height  int
	// channel counts for EventChannelMismatch
	Declared int
	Decoded  int
}

func (e Event) Attrs() []any {
	attrs := []any{"kind", e.Kind.String(), "trackId", e.TrackID}
	switch e.Kind {
	case EventError:
		attrs = append(attrs, "err", e.Err)
	case EventCodec:
		attrs = append(attrs, "fourcc", e.Codec.String(), "info", e.Info)
	case EventResolution:
		attrs = append(attrs, "width", e.Width, "height", e.Height)
	case EventChannelMismatch:
		attrs = append(attrs, "declared", e.Declared, "decoded", e.Decoded)
	}
	return attrs
}

// Diagnostics receives events from a Demuxer. Report must not block.
type Diagnostics interface {
	Report(Event)
}

type NopDiagnostics struct{}

func (NopDiagnostics) Report(Event) {}

type LogDiagnostics struct {
	*slog.Logger
}

func (l LogDiagnostics) Report(e Event) {
	if e.Kind == EventError {
		l.Warn("diagnostics", e.Attrs()...)
	} else {
		l.Debug("diagnostics", e.Attrs()...)
	}
}

// BusDiagnostics forwards events to an EventBus, dropping them when it is full.
// One bus may be shared by several demuxers.
type BusDiagnostics struct {
	Bus     pkg.EventBus[Event]
	dropped atomic.Uint64
}

func NewBusDiagnostics(size int) *BusDiagnostics {
	return &BusDiagnostics{Bus: pkg.NewEventBus[Event](size)}
}

func (b *BusDiagnostics) Report(e Event) {
	if !b.Bus.Publish(e) {
		b.dropped.Add(1)
	}
}

// Dropped is the number of events lost to a full bus.
func (b *BusDiagnostics) Dropped() uint64 {
	return b.dropped.Load()
}

type MultiDiagnostics []Diagnostics

func (m MultiDiagnostics) Report(e Event) {
	for _, d := range m {
		d.Report(e)
	}
}
