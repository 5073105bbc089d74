package fmp4

import (
	"errors"
	"fmt"
	"log/slog"

	"m7s.live/player/pkg/codec"
)

// FormatDescription is the platform object a decode sink is configured with.
type FormatDescription interface {
	FourCC() codec.FourCC
}

type VideoFormat struct {
	CodecTag codec.FourCC
	Width    int
	Height   int
	// Config is the hvcC record, passed through unmodified.
	Config []byte
	Color  *codec.ColorInfo
}

func (v *VideoFormat) FourCC() codec.FourCC {
	return v.CodecTag
}

// AudioStreamDescription mirrors the fixed part of a platform audio format.
type AudioStreamDescription struct {
	FormatID         codec.FourCC
	SampleRate       float64
	ChannelsPerFrame uint32
	FramesPerPacket  uint32
}

type AudioFormat struct {
	AudioStreamDescription
	// MagicCookie is the codec payload, nil for a bare description.
	MagicCookie []byte
}

func (a *AudioFormat) FourCC() codec.FourCC {
	return a.FormatID
}

// FormatFactory creates platform descriptions. Failures should be *StatusError
// so the platform status reaches the caller.
type FormatFactory interface {
	NewVideoFormat(VideoFormat) (FormatDescription, error)
	NewAudioFormat(asbd AudioStreamDescription, cookie []byte) (FormatDescription, error)
}

type StatusError struct {
	Status int32
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Reason)
}

func statusOf(err error) int32 {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Status
	}
	return StatusInvalidParameter
}

type Builder struct {
	Factory FormatFactory
	Logger  *slog.Logger
}

// Build creates the description for track. An audio cookie the factory
// rejects is dropped and the bare description tried instead.
func (b *Builder) Build(track *TrackDescriptor) (FormatDescription, error) {
	switch track.Kind {
	case KindVideo:
		desc, err := b.Factory.NewVideoFormat(VideoFormat{
			CodecTag: track.Config.CodecTag,
			Width:    track.Width,
			Height:   track.Height,
			Config:   track.Config.Payload,
			Color:    track.Config.Color,
		})
		if err != nil {
			return nil, &DecoderConfigBuildError{TrackID: track.TrackID, Status: statusOf(err), Err: err}
		}
		return desc, nil
	case KindAudio:
		asbd := AudioStreamDescription{
			FormatID:         track.Config.CodecTag,
			SampleRate:       float64(track.SampleRate),
			ChannelsPerFrame: uint32(track.ChannelCount),
		}
		if track.Config.Audio != nil {
			asbd.FramesPerPacket = uint32(track.Config.Audio.FramesPerPacket)
		}
		if cookie := track.Config.Payload; len(cookie) > 0 {
			desc, err := b.Factory.NewAudioFormat(asbd, cookie)
			if err == nil {
				return desc, nil
			}
			b.logger().Warn("magic cookie rejected, retrying without", "trackId", track.TrackID, "err", err)
		}
		desc, err := b.Factory.NewAudioFormat(asbd, nil)
		if err != nil {
			return nil, &DecoderConfigBuildError{TrackID: track.TrackID, Status: statusOf(err), Err: err}
		}
		return desc, nil
	}
	return nil, &DecoderConfigBuildError{TrackID: track.TrackID, Status: StatusInvalidParameter, Err: fmt.Errorf("track kind %s", track.Kind)}
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// DefaultFactory builds plain descriptions, checking cookies with the codec parsers.
type DefaultFactory struct{}

func (DefaultFactory) NewVideoFormat(v VideoFormat) (FormatDescription, error) {
	if len(v.Config) == 0 {
		return nil, &StatusError{Status: StatusInvalidParameter, Reason: "empty decoder configuration record"}
	}
	return &v, nil
}

func (DefaultFactory) NewAudioFormat(asbd AudioStreamDescription, cookie []byte) (FormatDescription, error) {
	if asbd.SampleRate <= 0 || asbd.ChannelsPerFrame == 0 {
		return nil, &StatusError{Status: StatusInvalidParameter, Reason: fmt.Sprintf("sample rate %v, %d channels", asbd.SampleRate, asbd.ChannelsPerFrame)}
	}
	if cookie != nil {
		var err error
		switch asbd.FormatID {
		case codec.FourCC_MP4A:
			_, err = codec.NewAACCtx(cookie)
		case codec.FourCC_AC3:
			_, err = codec.ParseAC3Config(cookie)
		case codec.FourCC_EAC3:
			_, err = codec.ParseEAC3Config(cookie)
		}
		if err != nil {
			return nil, &StatusError{Status: StatusInvalidParameter, Reason: err.Error()}
		}
	}
	return &AudioFormat{AudioStreamDescription: asbd, MagicCookie: cookie}, nil
}
