package fmp4

import (
	"bytes"
	"testing"

	"github.com/Eyevinn/mp4ff/aac"
	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/stretchr/testify/require"

	"m7s.live/player/pkg/codec"
)

// muxAAC writes an init segment and one media segment per fragment with the
// mp4ff muxer, so the demuxer is checked against a third-party writer.
func muxAAC(t *testing.T, fragments ...[]mp4.FullSample) (init []byte, segments [][]byte) {
	t.Helper()
	initSegment := mp4.CreateEmptyInit()
	initSegment.Moov.Mvhd.NextTrackID = 1
	moov := initSegment.Moov
	trackID := moov.Mvhd.NextTrackID
	moov.Mvhd.NextTrackID++
	newTrak := mp4.CreateEmptyTrak(trackID, 48000, "audio", "und")
	moov.AddChild(newTrak)
	moov.Mvex.AddChild(mp4.CreateTrex(trackID))
	require.NoError(t, newTrak.SetAACDescriptor(byte(aac.AAClc), 48000))

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("iso6", 0x200, []string{"iso6", "cmfc", "mp41"})
	require.NoError(t, ftyp.Encode(&buf))
	require.NoError(t, moov.Encode(&buf))
	init = bytes.Clone(buf.Bytes())

	for i, samples := range fragments {
		fragment, err := mp4.CreateFragment(uint32(i+1), trackID)
		require.NoError(t, err)
		for _, s := range samples {
			fragment.AddFullSample(s)
		}
		buf.Reset()
		require.NoError(t, fragment.Encode(&buf))
		segments = append(segments, bytes.Clone(buf.Bytes()))
	}
	return
}

func aacFrame(dts uint64, fill byte, size int) mp4.FullSample {
	return mp4.FullSample{
		Data:       bytes.Repeat([]byte{fill}, size),
		DecodeTime: dts,
		Sample: mp4.Sample{
			Flags: mp4.SyncSampleFlags,
			Dur:   1024,
			Size:  uint32(size),
		},
	}
}

func TestMP4ffRoundTrip(t *testing.T) {
	init, segments := muxAAC(t,
		[]mp4.FullSample{aacFrame(0, 0xa0, 371), aacFrame(1024, 0xa1, 360), aacFrame(2048, 0xa2, 402)},
		[]mp4.FullSample{aacFrame(3072, 0xa3, 380), aacFrame(4096, 0xa4, 377)},
	)
	d, rec := newTestDemuxer(t, init, false)
	require.Len(t, d.Tracks(), 1)
	track := d.Tracks()[0]
	require.Equal(t, KindAudio, track.Kind)
	require.Equal(t, uint32(48000), track.Timescale)
	require.Equal(t, codec.FourCC_MP4A, track.Config.CodecTag)
	require.Equal(t, codec.AudioCodecAAC, track.Config.Audio.Codec)
	require.Equal(t, 48000, track.SampleRate)
	require.Equal(t, 2, track.ChannelCount)
	require.NotNil(t, track.Config.Audio.AAC)
	require.Equal(t, uint8(codec.AOT_AAC_LC), uint8(track.Config.Audio.AAC.ObjectType))
	require.Empty(t, rec.kinds(EventError))
	require.Empty(t, rec.kinds(EventChannelMismatch))

	_, err := d.BuildFormatDescription(track.TrackID)
	require.NoError(t, err)

	var all []Sample
	for _, seg := range segments {
		samples, err := d.ParseMediaSegment(seg)
		require.NoError(t, err)
		all = append(all, samples...)
	}
	require.Len(t, all, 5)
	for i, s := range all {
		require.Equal(t, int64(i*1024), s.DTS)
		require.Equal(t, uint32(1024), s.Duration)
		require.True(t, s.Keyframe)
		require.NotEmpty(t, s.Data)
		require.Equal(t, bytes.Repeat([]byte{0xa0 + byte(i)}, len(s.Data)), s.Data)
	}
	require.Len(t, all[2].Data, 402)

	// both fragments in one buffer
	samples, err := d.ParseMediaSegment(append(bytes.Clone(segments[0]), segments[1]...))
	require.NoError(t, err)
	require.Len(t, samples, 5)
	require.GreaterOrEqual(t, samples[3].Offset, len(segments[0]))
	require.Equal(t, all[3].Data, samples[3].Data)
	require.Equal(t, Stats{MediaSegments: 3, Samples: 10}, d.Stats())
	require.Empty(t, rec.kinds(EventError))
}
