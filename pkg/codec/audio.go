package codec

import (
	"fmt"

	"github.com/deepch/vdk/codec/aacparser"
)

type AudioCodec uint8

const (
	AudioCodecUnknown AudioCodec = iota
	AudioCodecAAC
	AudioCodecAC3
	AudioCodecEAC3
)

func (c AudioCodec) String() string {
	switch c {
	case AudioCodecAAC:
		return "aac"
	case AudioCodecAC3:
		return "ac-3"
	case AudioCodecEAC3:
		return "e-ac-3"
	}
	return "unknown"
}

type (
	// AudioConfig is the decoded configuration of an audio track.
	AudioConfig struct {
		Codec           AudioCodec
		Tag             FourCC
		SampleRate      int
		Channels        int
		SampleSize      int
		FramesPerPacket int
		// Record is the codec payload handed to the decoder as its magic cookie.
		Record []byte
		AAC    *AudioSpecificConfig
		AC3    *AC3Config
		EAC3   *EAC3Config
	}
	AACCtx struct {
		aacparser.CodecData
	}
)

func (cfg *AudioConfig) FourCC() FourCC {
	return cfg.Tag
}

func (cfg *AudioConfig) GetInfo() string {
	return fmt.Sprintf("codec: %s, sample rate: %d, channels: %d", cfg.Codec, cfg.SampleRate, cfg.Channels)
}

// NewAACCtx validates an AudioSpecificConfig with vdk's parser.
func NewAACCtx(record []byte) (ctx *AACCtx, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx, err = nil, fmt.Errorf("aacparser: %v", r)
		}
	}()
	ctx = &AACCtx{}
	if ctx.CodecData, err = aacparser.NewCodecDataFromMPEG4AudioConfigBytes(record); err != nil {
		return nil, err
	}
	return
}

// AudioVariant binds a sample entry code to the box carrying its configuration
// and the decoder for that box's payload.
type AudioVariant struct {
	Codec           AudioCodec
	FramesPerPacket int
	// ConfigBox is the child of the sample entry holding the codec payload.
	ConfigBox FourCC
	parse     func(payload []byte, cfg *AudioConfig) error
}

var audioVariants = map[FourCC]AudioVariant{
	FourCC_MP4A: {
		Codec:           AudioCodecAAC,
		FramesPerPacket: 1024,
		ConfigBox:       FourCC{'e', 's', 'd', 's'},
		parse: func(payload []byte, cfg *AudioConfig) error {
			asc, err := ParseAudioSpecificConfig(payload)
			if err != nil {
				return err
			}
			cfg.AAC = &asc
			cfg.SampleRate, cfg.Channels = asc.SampleRate, asc.Channels
			// explicit SBR doubles the output rate, PS turns mono into stereo
			if asc.SBR && asc.ExtensionSampleRate > 0 {
				cfg.SampleRate = asc.ExtensionSampleRate
			}
			if asc.PS && asc.Channels == 1 {
				cfg.Channels = 2
			}
			return nil
		},
	},
	FourCC_AC3: {
		Codec:           AudioCodecAC3,
		FramesPerPacket: 1536,
		ConfigBox:       FourCC{'d', 'a', 'c', '3'},
		parse: func(payload []byte, cfg *AudioConfig) error {
			ac3, err := ParseAC3Config(payload)
			if err != nil {
				return err
			}
			cfg.AC3 = &ac3
			cfg.SampleRate, cfg.Channels = ac3.SampleRate, ac3.Channels
			return nil
		},
	},
	FourCC_EAC3: {
		Codec:           AudioCodecEAC3,
		FramesPerPacket: 1536,
		ConfigBox:       FourCC{'d', 'e', 'c', '3'},
		parse: func(payload []byte, cfg *AudioConfig) error {
			eac3, err := ParseEAC3Config(payload)
			if err != nil {
				return err
			}
			cfg.EAC3 = &eac3
			cfg.SampleRate, cfg.Channels = eac3.SampleRate, eac3.Channels
			return nil
		},
	},
}

// LookupAudioVariant returns the variant for tag; unknown tags get the
// AudioCodecUnknown variant, which has no config box and 0 frames per packet.
func LookupAudioVariant(tag FourCC) AudioVariant {
	if v, ok := audioVariants[tag]; ok {
		return v
	}
	return AudioVariant{Codec: AudioCodecUnknown}
}

// Build decodes payload into a config for tag.
func (v AudioVariant) Build(tag FourCC, payload []byte) (*AudioConfig, error) {
	cfg := &AudioConfig{
		Codec:           v.Codec,
		Tag:             tag,
		SampleSize:      16,
		FramesPerPacket: v.FramesPerPacket,
		Record:          payload,
	}
	if v.parse == nil {
		return nil, fmt.Errorf("%s: no decoder for %s", tag, v.Codec)
	}
	if err := v.parse(payload, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	return cfg, nil
}

// Generic describes a track from its sample entry alone, with no cookie.
func (v AudioVariant) Generic(tag FourCC, sampleRate, channels, sampleSize int) *AudioConfig {
	return &AudioConfig{
		Codec:           v.Codec,
		Tag:             tag,
		SampleRate:      sampleRate,
		Channels:        channels,
		SampleSize:      sampleSize,
		FramesPerPacket: v.FramesPerPacket,
	}
}
