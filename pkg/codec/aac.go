package codec

import (
	"errors"
	"fmt"

	"m7s.live/player/pkg/util"
)

var (
	ErrReservedSampleRateIndex = errors.New("reserved sampling frequency index")
	ErrReservedChannelConfig   = errors.New("reserved channel configuration")
	ErrUnsupportedObjectType   = errors.New("unsupported audio object type")
)

const (
	AOT_AAC_MAIN        = 1
	AOT_AAC_LC          = 2
	AOT_AAC_SSR         = 3
	AOT_AAC_LTP         = 4
	AOT_SBR             = 5
	AOT_AAC_SCALABLE    = 6
	AOT_ER_AAC_LC       = 17
	AOT_ER_AAC_LTP      = 19
	AOT_ER_AAC_SCALABLE = 20
	AOT_ER_TWINVQ       = 21
	AOT_ER_BSAC         = 22
	AOT_ER_AAC_LD       = 23
	AOT_PS              = 29
	AOT_ESCAPE          = 31
)

// AACSampleRates is indexed by samplingFrequencyIndex; 13 and 14 are reserved, 15 means explicit.
var AACSampleRates = [13]int{96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350}

var aacChannelConfigs = [8]int{0, 1, 2, 3, 4, 5, 6, 8}

// ProgramConfigElement is the channel layout carried when channelConfiguration is 0.
type ProgramConfigElement struct {
	ElementInstanceTag uint8
	ObjectType         uint8
	SampleRateIndex    uint8
	FrontElements      []bool // true for a channel pair
	SideElements       []bool
	BackElements       []bool
	LFEElements        int
	AssocDataElements  int
	ValidCCElements    int
	Channels           int
}

// AudioSpecificConfig is the decoded form of an MPEG-4 AudioSpecificConfig.
type AudioSpecificConfig struct {
	ObjectType      int
	SampleRateIndex int
	SampleRate      int
	ChannelConfig   int
	Channels        int

	// explicit SBR/PS signalling
	SBR                 bool
	PS                  bool
	ExtensionSampleRate int

	FrameLengthFlag    bool
	DependsOnCoreCoder bool
	CoreCoderDelay     int
	ExtensionFlag      bool
	PCE                *ProgramConfigElement
}

func readObjectType(r *util.BitReader) (int, error) {
	objType, err := r.ReadBits(5)
	if err != nil {
		return 0, err
	}
	if objType == AOT_ESCAPE {
		ext, err := r.ReadBits(6)
		if err != nil {
			return 0, err
		}
		return 32 + int(ext), nil
	}
	return int(objType), nil
}

func readSampleRate(r *util.BitReader) (index int, rate int, err error) {
	var v uint32
	if v, err = r.ReadBits(4); err != nil {
		return
	}
	index = int(v)
	switch {
	case index < len(AACSampleRates):
		rate = AACSampleRates[index]
	case index == 15:
		if v, err = r.ReadBits(24); err != nil {
			return
		}
		rate = int(v)
	default:
		err = fmt.Errorf("index %d: %w", index, ErrReservedSampleRateIndex)
	}
	return
}

func isGASpecific(objType int) bool {
	switch objType {
	case AOT_AAC_MAIN, AOT_AAC_LC, AOT_AAC_SSR, AOT_AAC_LTP, AOT_AAC_SCALABLE,
		AOT_ER_AAC_LC, AOT_ER_AAC_LTP, AOT_ER_AAC_SCALABLE, AOT_ER_TWINVQ, AOT_ER_BSAC, AOT_ER_AAC_LD:
		return true
	}
	return false
}

// ParseAudioSpecificConfig decodes b per ISO/IEC 14496-3 1.6.2.1. When the
// channel configuration is 0 the count comes from the program config element.
func ParseAudioSpecificConfig(b []byte) (asc AudioSpecificConfig, err error) {
	r := util.NewBitReader(b)
	if asc.ObjectType, err = readObjectType(r); err != nil {
		return
	}
	if asc.SampleRateIndex, asc.SampleRate, err = readSampleRate(r); err != nil {
		return
	}
	var v uint32
	if v, err = r.ReadBits(4); err != nil {
		return
	}
	asc.ChannelConfig = int(v)
	if asc.ChannelConfig >= len(aacChannelConfigs) {
		err = fmt.Errorf("channel configuration %d: %w", asc.ChannelConfig, ErrReservedChannelConfig)
		return
	}
	asc.Channels = aacChannelConfigs[asc.ChannelConfig]

	if asc.ObjectType == AOT_SBR || asc.ObjectType == AOT_PS {
		asc.SBR = true
		asc.PS = asc.ObjectType == AOT_PS
		if _, asc.ExtensionSampleRate, err = readSampleRate(r); err != nil {
			return
		}
		if asc.ObjectType, err = readObjectType(r); err != nil {
			return
		}
		if asc.ObjectType == AOT_ER_BSAC {
			if err = r.Skip(4); err != nil { // extensionChannelConfiguration
				return
			}
		}
	}

	if asc.ChannelConfig != 0 {
		return
	}
	if !isGASpecific(asc.ObjectType) {
		err = fmt.Errorf("object type %d with channel configuration 0: %w", asc.ObjectType, ErrUnsupportedObjectType)
		return
	}
	if asc.FrameLengthFlag, err = r.ReadFlag(); err != nil {
		return
	}
	if asc.DependsOnCoreCoder, err = r.ReadFlag(); err != nil {
		return
	}
	if asc.DependsOnCoreCoder {
		if v, err = r.ReadBits(14); err != nil {
			return
		}
		asc.CoreCoderDelay = int(v)
	}
	if asc.ExtensionFlag, err = r.ReadFlag(); err != nil {
		return
	}
	if asc.PCE, err = ParseProgramConfigElement(r); err != nil {
		return
	}
	asc.Channels = asc.PCE.Channels
	return
}

// ParseProgramConfigElement reads program_config_element() up to the LFE
// element list, which is all the channel count depends on.
func ParseProgramConfigElement(r *util.BitReader) (pce *ProgramConfigElement, err error) {
	pce = &ProgramConfigElement{}
	var header [9]uint32
	for i, bits := range [9]int{4, 2, 4, 4, 4, 4, 2, 3, 4} {
		if header[i], err = r.ReadBits(bits); err != nil {
			return nil, err
		}
	}
	pce.ElementInstanceTag = uint8(header[0])
	pce.ObjectType = uint8(header[1])
	pce.SampleRateIndex = uint8(header[2])
	front, side, back := int(header[3]), int(header[4]), int(header[5])
	pce.LFEElements = int(header[6])
	pce.AssocDataElements = int(header[7])
	pce.ValidCCElements = int(header[8])

	// mono, stereo and matrix mixdown: presence bit plus 4, 4 and 3 bits
	for _, width := range []int{4, 4, 3} {
		var present bool
		if present, err = r.ReadFlag(); err != nil {
			return nil, err
		}
		if present {
			if err = r.Skip(width); err != nil {
				return nil, err
			}
		}
	}

	readElements := func(count int) (pairs []bool, err error) {
		pairs = make([]bool, count)
		for i := range pairs {
			if pairs[i], err = r.ReadFlag(); err != nil {
				return
			}
			if err = r.Skip(4); err != nil {
				return
			}
			if pairs[i] {
				pce.Channels += 2
			} else {
				pce.Channels++
			}
		}
		return
	}
	if pce.FrontElements, err = readElements(front); err != nil {
		return nil, err
	}
	if pce.SideElements, err = readElements(side); err != nil {
		return nil, err
	}
	if pce.BackElements, err = readElements(back); err != nil {
		return nil, err
	}
	for i := 0; i < pce.LFEElements; i++ {
		if err = r.Skip(4); err != nil {
			return nil, err
		}
		pce.Channels++
	}
	return pce, nil
}

func (asc *AudioSpecificConfig) String() string {
	return fmt.Sprintf("object type: %d, sample rate: %d, channels: %d, sbr: %v, ps: %v", asc.ObjectType, asc.SampleRate, asc.Channels, asc.SBR, asc.PS)
}
