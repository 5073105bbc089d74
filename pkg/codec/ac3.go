package codec

import (
	"errors"
	"fmt"

	"m7s.live/player/pkg/util"
)

var ErrReservedFscod = errors.New("reserved fscod")

var ac3SampleRates = [3]int{48000, 44100, 32000}

// full-bandwidth channels per acmod, ETSI TS 102 366 table 4.3
var ac3AcmodChannels = [8]int{2, 1, 2, 3, 3, 4, 4, 5}

// channels per chan_loc bit, MSB first: Lc/Rc, Lrs/Rrs, Cs, Ts, Lsd/Rsd, Lw/Rw, Lvh/Rvh, Cvh, LFE2
var eac3ChanLocChannels = [9]int{2, 2, 1, 1, 2, 2, 2, 1, 1}

// AC3Config is the content of a 'dac3' box.
type AC3Config struct {
	Fscod       uint8
	Bsid        uint8
	Bsmod       uint8
	Acmod       uint8
	LFEOn       bool
	BitRateCode uint8
	SampleRate  int
	Channels    int
}

func ac3SampleRate(fscod uint32) (int, error) {
	if int(fscod) >= len(ac3SampleRates) {
		return 0, fmt.Errorf("fscod %d: %w", fscod, ErrReservedFscod)
	}
	return ac3SampleRates[fscod], nil
}

// ParseAC3Config decodes an AC3SpecificBox payload.
func ParseAC3Config(b []byte) (cfg AC3Config, err error) {
	r := util.NewBitReader(b)
	var f [6]uint32
	for i, bits := range [6]int{2, 5, 3, 3, 1, 5} {
		if f[i], err = r.ReadBits(bits); err != nil {
			return
		}
	}
	cfg.Fscod, cfg.Bsid, cfg.Bsmod, cfg.Acmod = uint8(f[0]), uint8(f[1]), uint8(f[2]), uint8(f[3])
	cfg.LFEOn = f[4] == 1
	cfg.BitRateCode = uint8(f[5])
	if cfg.SampleRate, err = ac3SampleRate(f[0]); err != nil {
		return
	}
	cfg.Channels = ac3AcmodChannels[cfg.Acmod]
	if cfg.LFEOn {
		cfg.Channels++
	}
	return
}

// EAC3Substream describes one independent substream of a 'dec3' box.
type EAC3Substream struct {
	Fscod     uint8
	Bsid      uint8
	Asvc      bool
	Bsmod     uint8
	Acmod     uint8
	LFEOn     bool
	NumDepSub uint8
	ChanLoc   uint16
}

// Channels counts the channels of the substream including its dependents.
func (s *EAC3Substream) Channels() (n int) {
	n = ac3AcmodChannels[s.Acmod]
	if s.LFEOn {
		n++
	}
	if s.NumDepSub > 0 {
		for i, c := range eac3ChanLocChannels {
			if s.ChanLoc&(1<<(8-i)) != 0 {
				n += c
			}
		}
	}
	return
}

// EAC3Config is the content of a 'dec3' box.
type EAC3Config struct {
	DataRate   uint16
	Substreams []EAC3Substream
	SampleRate int
	Channels   int
}

// ParseEAC3Config decodes an EC3SpecificBox payload. Sample rate and channel
// count are taken from the first independent substream.
func ParseEAC3Config(b []byte) (cfg EAC3Config, err error) {
	r := util.NewBitReader(b)
	var v uint32
	if v, err = r.ReadBits(13); err != nil {
		return
	}
	cfg.DataRate = uint16(v)
	if v, err = r.ReadBits(3); err != nil {
		return
	}
	cfg.Substreams = make([]EAC3Substream, v+1)
	for i := range cfg.Substreams {
		sub := &cfg.Substreams[i]
		// fscod, bsid, reserved, asvc, bsmod, acmod, lfeon, reserved, num_dep_sub
		var f [9]uint32
		for j, bits := range [9]int{2, 5, 1, 1, 3, 3, 1, 3, 4} {
			if f[j], err = r.ReadBits(bits); err != nil {
				return
			}
		}
		sub.Fscod, sub.Bsid = uint8(f[0]), uint8(f[1])
		sub.Asvc = f[3] == 1
		sub.Bsmod, sub.Acmod = uint8(f[4]), uint8(f[5])
		sub.LFEOn = f[6] == 1
		sub.NumDepSub = uint8(f[8])
		if sub.NumDepSub > 0 {
			if v, err = r.ReadBits(9); err != nil {
				return
			}
			sub.ChanLoc = uint16(v)
		} else if err = r.Skip(1); err != nil {
			return
		}
	}
	first := &cfg.Substreams[0]
	if cfg.SampleRate, err = ac3SampleRate(uint32(first.Fscod)); err != nil {
		return
	}
	cfg.Channels = first.Channels()
	return
}
