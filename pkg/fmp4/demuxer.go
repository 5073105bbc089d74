package fmp4

import (
	"fmt"
	"log/slog"
	"time"

	"m7s.live/player/pkg/box"
	"m7s.live/player/pkg/codec"
)

type TrackKind uint8

const (
	KindVideo TrackKind = iota + 1
	KindAudio
)

func (k TrackKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	}
	return "unknown"
}

// DecoderConfig is what a decode sink needs once per track before the first sample.
type DecoderConfig struct {
	// CodecTag is the tag to announce, after the HDR override.
	CodecTag codec.FourCC
	// OriginalTag is the sample entry code found in the file.
	OriginalTag codec.FourCC
	Payload     []byte
	Color       *codec.ColorInfo
	Audio       *codec.AudioConfig
	// Codec is the parsed form of Payload, nil when the payload could not be inspected.
	Codec codec.ICodecCtx
}

// TrackDefaults are the trex values used when a fragment leaves a field out.
type TrackDefaults struct {
	SampleDescriptionIndex uint32
	Duration               uint32
	Size                   uint32
	Flags                  uint32
}

type TrackDescriptor struct {
	TrackID      uint32
	Kind         TrackKind
	Timescale    uint32
	Width        int
	Height       int
	ChannelCount int
	SampleRate   int
	Config       DecoderConfig
	Defaults     TrackDefaults
}

func (t *TrackDescriptor) String() string {
	return fmt.Sprintf("track %d %s %s@%d", t.TrackID, t.Kind, t.Config.CodecTag, t.Timescale)
}

// Sample is one access unit. Data aliases the segment buffer it was parsed from.
type Sample struct {
	TrackID   uint32
	Kind      TrackKind
	Data      []byte
	Offset    int
	DTS       int64
	PTS       int64
	Duration  uint32
	Timescale uint32
	Keyframe  bool
}

func (s *Sample) DecodeTime() time.Duration {
	return scaleTime(s.DTS, s.Timescale)
}

func (s *Sample) PresentationTime() time.Duration {
	return scaleTime(s.PTS, s.Timescale)
}

func scaleTime(ts int64, timescale uint32) time.Duration {
	if timescale == 0 {
		return 0
	}
	sec, rem := ts/int64(timescale), ts%int64(timescale)
	return time.Duration(sec)*time.Second + time.Duration(rem)*time.Second/time.Duration(timescale)
}

type Stats struct {
	MediaSegments     uint64
	Samples           uint64
	DroppedFragments  uint64
	TruncatedRuns     uint64
	ChannelMismatches uint64
}

type Option func(*Demuxer)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Demuxer) {
		d.Logger = logger
	}
}

func WithDiagnostics(diag Diagnostics) Option {
	return func(d *Demuxer) {
		d.diag = diag
	}
}

func WithFactory(factory FormatFactory) Option {
	return func(d *Demuxer) {
		d.builder.Factory = factory
	}
}

type Demuxer struct {
	*slog.Logger
	diag        Diagnostics
	builder     Builder
	brands      *box.FileTypeBox
	tracks      []*TrackDescriptor
	trackByID   map[uint32]*TrackDescriptor
	stats       Stats
	initialized bool
}

func NewDemuxer(opts ...Option) *Demuxer {
	d := &Demuxer{
		Logger: slog.Default(),
		diag:   NopDiagnostics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.builder.Factory == nil {
		d.builder.Factory = DefaultFactory{}
	}
	d.builder.Logger = d.Logger
	return d
}

// ParseInitSegment builds the track table. It must succeed once before any
// media segment is parsed; a second call fails with ErrAlreadyInitialized.
func (d *Demuxer) ParseInitSegment(data []byte, hdrOverride bool) error {
	if d.initialized {
		return ErrAlreadyInitialized
	}
	tracks, err := d.parseInit(data, hdrOverride)
	if err != nil {
		return err
	}
	d.tracks = tracks
	d.trackByID = make(map[uint32]*TrackDescriptor, len(tracks))
	for _, track := range tracks {
		d.trackByID[track.TrackID] = track
	}
	d.initialized = true
	d.Info("init segment parsed", "tracks", len(tracks), "hdrOverride", hdrOverride)
	return nil
}

// ParseMediaSegment returns the samples of every fragment in data ordered by
// decode time. Malformed fragments and runs are skipped and reported to
// Diagnostics; only calling it before ParseInitSegment is an error.
func (d *Demuxer) ParseMediaSegment(data []byte) ([]Sample, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}
	d.stats.MediaSegments++
	samples := Assemble(d.parseSegment(data))
	d.stats.Samples += uint64(len(samples))
	return samples, nil
}

// BuildDecoderConfig returns the configuration of trackID after checking that
// the format factory accepts it.
func (d *Demuxer) BuildDecoderConfig(trackID uint32) (DecoderConfig, error) {
	track, err := d.lookup(trackID)
	if err != nil {
		return DecoderConfig{}, err
	}
	if _, err = d.builder.Build(track); err != nil {
		return DecoderConfig{}, err
	}
	return track.Config, nil
}

func (d *Demuxer) BuildFormatDescription(trackID uint32) (FormatDescription, error) {
	track, err := d.lookup(trackID)
	if err != nil {
		return nil, err
	}
	return d.builder.Build(track)
}

func (d *Demuxer) lookup(trackID uint32) (*TrackDescriptor, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}
	track, ok := d.trackByID[trackID]
	if !ok {
		return nil, &UnknownTrackError{TrackID: trackID}
	}
	return track, nil
}

// Tracks lists the parsed tracks in init segment order.
func (d *Demuxer) Tracks() []*TrackDescriptor {
	return d.tracks
}

func (d *Demuxer) Track(trackID uint32) (*TrackDescriptor, bool) {
	track, ok := d.trackByID[trackID]
	return track, ok
}

// Brands returns the ftyp of the init segment, nil when it had none.
func (d *Demuxer) Brands() *box.FileTypeBox {
	return d.brands
}

func (d *Demuxer) Stats() Stats {
	return d.stats
}

func (d *Demuxer) report(trackID uint32, err error) {
	d.Warn("skipped", "trackId", trackID, "err", err)
	d.diag.Report(Event{Kind: EventError, TrackID: trackID, Err: err})
}
