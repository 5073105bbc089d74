package fmp4

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"m7s.live/player/pkg/codec"
)

var (
	ac3Payload  = []byte{0x10, 0x3d, 0xe0}             // 48000, 3/2 + LFE
	eac3Payload = []byte{0x0a, 0x00, 0x20, 0x0f, 0x00} // one independent substream, 48000, 3/2 + LFE
)

func newTestDemuxer(t *testing.T, init []byte, hdr bool, opts ...Option) (*Demuxer, *recorder) {
	t.Helper()
	rec := &recorder{}
	d := NewDemuxer(append([]Option{WithDiagnostics(rec)}, opts...)...)
	require.NoError(t, d.ParseInitSegment(init, hdr))
	return d, rec
}

func TestParseInitSegment(t *testing.T) {
	init := initSegment(append(hevcTrak(1, "hvc1"), aacTrak(2, 2, aacLCStereo)...),
		trex(1, 3000, 0, 0x01010000), trex(2, 1024, 0, 0))
	d, rec := newTestDemuxer(t, init, false)

	tracks := d.Tracks()
	require.Len(t, tracks, 2)

	video := tracks[0]
	require.Equal(t, uint32(1), video.TrackID)
	require.Equal(t, KindVideo, video.Kind)
	require.Equal(t, uint32(90000), video.Timescale)
	require.Equal(t, 1920, video.Width)
	require.Equal(t, 1080, video.Height)
	require.Equal(t, codec.FourCC_H265, video.Config.CodecTag)
	require.Equal(t, codec.FourCC_H265, video.Config.OriginalTag)
	require.Equal(t, testHVCC, video.Config.Payload)
	require.Nil(t, video.Config.Color)
	require.Equal(t, TrackDefaults{SampleDescriptionIndex: 1, Duration: 3000, Flags: 0x01010000}, video.Defaults)

	audio := tracks[1]
	require.Equal(t, KindAudio, audio.Kind)
	require.Equal(t, uint32(48000), audio.Timescale)
	require.Equal(t, 48000, audio.SampleRate)
	require.Equal(t, 2, audio.ChannelCount)
	require.Equal(t, codec.FourCC_MP4A, audio.Config.CodecTag)
	require.Equal(t, aacLCStereo, audio.Config.Payload)
	require.NotNil(t, audio.Config.Audio)
	require.Equal(t, codec.AudioCodecAAC, audio.Config.Audio.Codec)
	require.Equal(t, 1024, audio.Config.Audio.FramesPerPacket)

	// the junk hvcC record is passed through but not inspected
	require.Nil(t, video.Config.Codec)
	require.Equal(t, audio.Config.Audio, audio.Config.Codec)
	require.Equal(t, codec.FourCC_MP4A, audio.Config.Codec.FourCC())

	require.NotNil(t, d.Brands())
	require.Equal(t, "iso6", d.Brands().MajorBrand.String())
	codecs := rec.kinds(EventCodec)
	require.Len(t, codecs, 2)
	require.Equal(t, "resolution: 1920x1080", codecs[0].Info)
	require.Equal(t, "codec: aac, sample rate: 48000, channels: 2", codecs[1].Info)
	require.Empty(t, rec.kinds(EventError))

	_, ok := d.Track(3)
	require.False(t, ok)
}

func TestParseInitSegmentErrors(t *testing.T) {
	t.Run("missing moov", func(t *testing.T) {
		d := NewDemuxer()
		err := d.ParseInitSegment(mkbox("ftyp", []byte("iso6"), u32(0)), false)
		require.ErrorIs(t, err, ErrMissingBox)
		var missing *MissingBoxError
		require.True(t, errors.As(err, &missing))
		require.Equal(t, "moov", missing.Name)

		_, err = d.ParseMediaSegment(mediaSegment(1))
		require.ErrorIs(t, err, ErrNotInitialized)
	})
	t.Run("no usable tracks", func(t *testing.T) {
		rec := &recorder{}
		d := NewDemuxer(WithDiagnostics(rec))
		text := trak(1, 1000, "text", 0, 0, mkbox("tx3g", make([]byte, 8)))
		avc := trak(2, 90000, "vide", 640, 480, visualEntry("avc1", 640, 480, mkbox("avcC", []byte{1})))
		err := d.ParseInitSegment(initSegment(append(text, avc...)), false)
		require.ErrorIs(t, err, ErrNoTracksFound)
		errs := rec.kinds(EventError)
		require.Len(t, errs, 1)
		require.Equal(t, uint32(2), errs[0].TrackID)
		require.ErrorIs(t, errs[0].Err, ErrInvalidBox)
	})
	t.Run("empty moov", func(t *testing.T) {
		err := NewDemuxer().ParseInitSegment(initSegment(nil), false)
		require.ErrorIs(t, err, ErrNoTracksFound)
	})
	t.Run("hvcC missing", func(t *testing.T) {
		d := NewDemuxer()
		err := d.ParseInitSegment(initSegment(trak(1, 90000, "vide", 640, 480, visualEntry("hvc1", 640, 480))), false)
		require.ErrorIs(t, err, ErrNoTracksFound)
	})
	t.Run("zero timescale", func(t *testing.T) {
		rec := &recorder{}
		d := NewDemuxer(WithDiagnostics(rec))
		bad := trak(1, 0, "vide", 640, 480, visualEntry("hvc1", 640, 480, mkbox("hvcC", testHVCC)))
		err := d.ParseInitSegment(initSegment(append(bad, aacTrak(2, 2, aacLCStereo)...)), false)
		require.NoError(t, err)
		require.Len(t, d.Tracks(), 1)
		require.Equal(t, uint32(2), d.Tracks()[0].TrackID)
		require.Len(t, rec.kinds(EventError), 1)
	})
	t.Run("duplicate track id", func(t *testing.T) {
		d, rec := newTestDemuxer(t, initSegment(append(hevcTrak(1, "hvc1"), aacTrak(1, 2, aacLCStereo)...)), false)
		require.Len(t, d.Tracks(), 1)
		require.Equal(t, KindVideo, d.Tracks()[0].Kind)
		require.Len(t, rec.kinds(EventError), 1)
	})
	t.Run("twice", func(t *testing.T) {
		init := initSegment(hevcTrak(1, "hvc1"))
		d, _ := newTestDemuxer(t, init, false)
		require.ErrorIs(t, d.ParseInitSegment(init, true), ErrAlreadyInitialized)
		require.Equal(t, codec.FourCC_H265, d.Tracks()[0].Config.CodecTag)
	})
}

func TestTrackHeaderVersions(t *testing.T) {
	tkhd1 := mkfull("tkhd", 1, 7,
		u64(0), u64(0), u32(7), u32(0), u64(0),
		make([]byte, 8), u16(0), u16(0), u16(0), u16(0),
		make([]byte, 36),
		u32(1280<<16), u32(720<<16))
	stsd := mkfull("stsd", 0, 0, u32(1), visualEntry("hev1", 640, 360, mkbox("hvcC", testHVCC)))
	v1 := mkbox("trak", tkhd1, mkbox("mdia", mdhd(90000), hdlr("vide"), mkbox("minf", mkbox("stbl", stsd))))
	d, _ := newTestDemuxer(t, initSegment(v1), false)
	track, ok := d.Track(7)
	require.True(t, ok)
	require.Equal(t, 1280, track.Width)
	require.Equal(t, 720, track.Height)
	require.Equal(t, codec.FourCC_HEV1, track.Config.CodecTag)

	// sample entry dimensions fill in for an empty tkhd
	d, _ = newTestDemuxer(t, initSegment(trak(3, 90000, "vide", 0, 0, visualEntry("hvc1", 640, 360, mkbox("hvcC", testHVCC)))), false)
	track, _ = d.Track(3)
	require.Equal(t, 640, track.Width)
	require.Equal(t, 360, track.Height)
}

func TestHDROverride(t *testing.T) {
	cases := []struct {
		tag  string
		want codec.FourCC
	}{
		{"hvc1", codec.FourCC_DVH1},
		{"dvh1", codec.FourCC_DVH1},
		{"hev1", codec.FourCC_DVHE},
		{"dvhe", codec.FourCC_DVHE},
	}
	for _, c := range cases {
		t.Run(c.tag, func(t *testing.T) {
			d, rec := newTestDemuxer(t, initSegment(hevcTrak(1, c.tag)), true)
			cfg, err := d.BuildDecoderConfig(1)
			require.NoError(t, err)
			require.Equal(t, c.want, cfg.CodecTag)
			require.Equal(t, c.tag, cfg.OriginalTag.String())
			require.Equal(t, testHVCC, cfg.Payload)
			require.Equal(t, &codec.HDR10Color, cfg.Color)
			require.Equal(t, c.want, rec.kinds(EventCodec)[0].Codec)

			desc, err := d.BuildFormatDescription(1)
			require.NoError(t, err)
			video := desc.(*VideoFormat)
			require.Equal(t, c.want, video.FourCC())
			require.Equal(t, uint16(codec.ColorPrimariesBT2020), video.Color.Primaries)
			require.Equal(t, uint16(codec.TransferSMPTE2084), video.Color.Transfer)
			require.Equal(t, uint16(codec.MatrixBT2020NCL), video.Color.Matrix)
		})
	}
}

func TestColourPassthrough(t *testing.T) {
	colr := mkbox("colr", []byte("nclx"), u16(1), u16(1), u16(1), []byte{0x80})
	entry := visualEntry("hvc1", 1280, 720, mkbox("hvcC", testHVCC), colr)
	init := initSegment(trak(1, 90000, "vide", 1280, 720, entry))

	d, _ := newTestDemuxer(t, init, false)
	cfg, err := d.BuildDecoderConfig(1)
	require.NoError(t, err)
	require.Equal(t, codec.FourCC_H265, cfg.CodecTag)
	require.Equal(t, &codec.ColorInfo{Primaries: 1, Transfer: 1, Matrix: 1, FullRange: true}, cfg.Color)

	d, _ = newTestDemuxer(t, init, true)
	cfg, err = d.BuildDecoderConfig(1)
	require.NoError(t, err)
	require.Equal(t, codec.FourCC_DVH1, cfg.CodecTag)
	require.Equal(t, &codec.HDR10Color, cfg.Color)
}

func TestAudioTracks(t *testing.T) {
	t.Run("ac-3", func(t *testing.T) {
		init := initSegment(trak(1, 48000, "soun", 0, 0, audioEntry("ac-3", 6, 48000, mkbox("dac3", ac3Payload))))
		d, rec := newTestDemuxer(t, init, false)
		track := d.Tracks()[0]
		require.Equal(t, 6, track.ChannelCount)
		require.Equal(t, 48000, track.SampleRate)
		require.Equal(t, ac3Payload, track.Config.Payload)
		require.Equal(t, codec.AudioCodecAC3, track.Config.Audio.Codec)
		require.Empty(t, rec.kinds(EventChannelMismatch))

		desc, err := d.BuildFormatDescription(1)
		require.NoError(t, err)
		audio := desc.(*AudioFormat)
		require.Equal(t, codec.FourCC_AC3, audio.FourCC())
		require.Equal(t, uint32(1536), audio.FramesPerPacket)
		require.Equal(t, ac3Payload, audio.MagicCookie)
	})
	t.Run("ec-3", func(t *testing.T) {
		init := initSegment(trak(1, 48000, "soun", 0, 0, audioEntry("ec-3", 2, 48000, mkbox("dec3", eac3Payload))))
		d, rec := newTestDemuxer(t, init, false)
		track := d.Tracks()[0]
		require.Equal(t, 6, track.ChannelCount)
		require.Equal(t, codec.AudioCodecEAC3, track.Config.Audio.Codec)
		mismatch := rec.kinds(EventChannelMismatch)
		require.Len(t, mismatch, 1)
		require.Equal(t, 2, mismatch[0].Declared)
		require.Equal(t, 6, mismatch[0].Decoded)
		require.Equal(t, uint64(1), d.Stats().ChannelMismatches)
	})
	t.Run("aac channel mismatch", func(t *testing.T) {
		d, rec := newTestDemuxer(t, initSegment(aacTrak(1, 6, aacLCStereo)), false)
		require.Equal(t, 2, d.Tracks()[0].ChannelCount)
		require.Len(t, rec.kinds(EventChannelMismatch), 1)
	})
	t.Run("aac without esds", func(t *testing.T) {
		init := initSegment(trak(1, 44100, "soun", 0, 0, audioEntry("mp4a", 2, 44100)))
		d, rec := newTestDemuxer(t, init, false)
		track := d.Tracks()[0]
		require.Empty(t, track.Config.Payload)
		require.Equal(t, 44100, track.SampleRate)
		require.Equal(t, 2, track.ChannelCount)
		errs := rec.kinds(EventError)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0].Err, ErrMissingBox)

		desc, err := d.BuildFormatDescription(1)
		require.NoError(t, err)
		require.Nil(t, desc.(*AudioFormat).MagicCookie)
	})
	t.Run("unknown codec", func(t *testing.T) {
		init := initSegment(trak(1, 48000, "soun", 0, 0, audioEntry("Opus", 2, 48000, mkbox("dOps", make([]byte, 11)))))
		d, rec := newTestDemuxer(t, init, false)
		track := d.Tracks()[0]
		require.Equal(t, "Opus", track.Config.CodecTag.String())
		require.Equal(t, codec.AudioCodecUnknown, track.Config.Audio.Codec)
		require.Empty(t, rec.kinds(EventError))
	})
}

func TestBuildDecoderConfigLookup(t *testing.T) {
	d := NewDemuxer()
	_, err := d.BuildDecoderConfig(1)
	require.ErrorIs(t, err, ErrNotInitialized)

	d, _ = newTestDemuxer(t, initSegment(hevcTrak(1, "hvc1")), false)
	_, err = d.BuildDecoderConfig(2)
	require.ErrorIs(t, err, ErrUnknownTrack)
	var unknown *UnknownTrackError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, uint32(2), unknown.TrackID)
}

func TestSampleTimes(t *testing.T) {
	s := Sample{DTS: 135000, PTS: 138000, Timescale: 90000}
	require.Equal(t, 1500*time.Millisecond, s.DecodeTime())
	require.Equal(t, 1533333333*time.Nanosecond, s.PresentationTime())
	require.Equal(t, time.Duration(0), (&Sample{DTS: 10}).DecodeTime())
	require.Equal(t, -time.Second/2, scaleTime(-24000, 48000))
}

func TestDiagnostics(t *testing.T) {
	rec := &recorder{}
	bus := NewBusDiagnostics(1)
	diag := MultiDiagnostics{rec, bus}
	diag.Report(Event{Kind: EventCodec, TrackID: 1, Codec: codec.FourCC_H265})
	diag.Report(Event{Kind: EventError, TrackID: 1, Err: ErrInvalidData})
	require.Len(t, rec.events, 2)
	require.Equal(t, uint64(1), bus.Dropped())
	events := bus.Bus.Drain()
	require.Len(t, events, 1)
	require.Equal(t, EventCodec, events[0].Kind)
	require.Equal(t, []any{"kind", "error", "trackId", uint32(1), "err", ErrInvalidData}, Event{Kind: EventError, TrackID: 1, Err: ErrInvalidData}.Attrs())
}
