package codec

import (
	"errors"
	"fmt"

	"github.com/deepch/vdk/codec/h265parser"
)

var ErrNoHEVCRecord = errors.New("empty hvcC record")

// ColorInfo carries ISO/IEC 23091-2 code points.
type ColorInfo struct {
	Primaries uint16
	Transfer  uint16
	Matrix    uint16
	FullRange bool
}

const (
	ColorPrimariesBT2020 = 9
	TransferSMPTE2084    = 16
	MatrixBT2020NCL      = 9
)

// HDR10Color is the colour description signalled with the HDR codec tags.
var HDR10Color = ColorInfo{
	Primaries: ColorPrimariesBT2020,
	Transfer:  TransferSMPTE2084,
	Matrix:    MatrixBT2020NCL,
}

func (c *ColorInfo) String() string {
	return fmt.Sprintf("primaries: %d, transfer: %d, matrix: %d, full range: %v", c.Primaries, c.Transfer, c.Matrix, c.FullRange)
}

// HDRCodecTag maps an HEVC sample entry code to its HDR-capable alias.
// Tags that already are aliases map to themselves.
func HDRCodecTag(tag FourCC) (FourCC, bool) {
	switch tag {
	case FourCC_H265, FourCC_DVH1:
		return FourCC_DVH1, true
	case FourCC_HEV1, FourCC_DVHE:
		return FourCC_DVHE, true
	}
	return tag, false
}

type (
	H265Ctx struct {
		h265parser.CodecData
		CodecTag FourCC
	}
)

// InspectHEVCRecord parses the parameter sets of an hvcC payload. The demuxer
// only uses the result for diagnostics; the payload is passed on untouched.
func InspectHEVCRecord(tag FourCC, record []byte) (ctx *H265Ctx, err error) {
	if len(record) == 0 {
		return nil, ErrNoHEVCRecord
	}
	defer func() {
		if r := recover(); r != nil {
			ctx, err = nil, fmt.Errorf("h265parser: %v", r)
		}
	}()
	ctx = &H265Ctx{CodecTag: tag}
	if ctx.CodecData, err = h265parser.NewCodecDataFromAVCDecoderConfRecord(record); err != nil {
		return nil, err
	}
	return
}

func (ctx *H265Ctx) GetInfo() string {
	return fmt.Sprintf("fps: %d, resolution: %s", ctx.FPS(), ctx.Resolution())
}

func (ctx *H265Ctx) FourCC() FourCC {
	return ctx.CodecTag
}
