package box

import (
	"fmt"

	"github.com/yapingcat/gomedia/go-codec"
)

// abstract aligned(8) expandable(228-1) class BaseDescriptor : bit(8) tag=0 {
// 	// empty. To be filled by classes extending this class.
// }

//  int sizeOfInstance = 0;
// 	bit(1) nextByte;
// 	bit(7) sizeOfInstance;
// 	while(nextByte) {
// 		bit(1) nextByte;
// 		bit(7) sizeByte;
// 		sizeOfInstance = sizeOfInstance<<7 | sizeByte;
// }

const (
	ES_DescrTag             = 0x03
	DecoderConfigDescrTag   = 0x04
	DecSpecificInfoTag      = 0x05
	SLConfigDescrTag        = 0x06
	ObjectTypeAudioISO14496 = 0x40
)

type BaseDescriptor struct {
	Tag            uint8
	SizeOfInstance uint32
}

func (base *BaseDescriptor) Decode(data []byte) *codec.BitStream {
	bs := codec.NewBitStream(data)
	base.Tag = bs.Uint8(8)
	nextbit := uint8(1)
	for nextbit == 1 {
		nextbit = bs.GetBit()
		base.SizeOfInstance = base.SizeOfInstance<<7 | bs.Uint32(7)
	}
	return bs
}

// ESDescriptorBox is the 'esds' full box wrapping an MPEG-4 ES_Descriptor.
type ESDescriptorBox struct {
	FullBox
	ObjectTypeIndication uint8
	StreamType           uint8
	MaxBitrate           uint32
	AvgBitrate           uint32
	// DecoderSpecificInfo is the payload of the 0x05 descriptor, the AudioSpecificConfig for AAC.
	DecoderSpecificInfo []byte
}

func (esds *ESDescriptorBox) Decode(buf []byte) (n int, err error) {
	if n, err = esds.FullBox.Decode(buf); err != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("esds: truncated descriptor: %v: %w", r, ErrBoxTooShort)
		}
	}()
	esd := buf[n:]
	for len(esd) > 0 {
		base := BaseDescriptor{}
		bs := base.Decode(esd)
		switch base.Tag {
		case ES_DescrTag:
			_ = bs.Uint32(16) // esId
			streamDependenceFlag := bs.Uint8(1)
			urlFlag := bs.Uint8(1)
			oCRstreamFlag := bs.Uint8(1)
			_ = bs.Uint8(5) // streamPriority
			if streamDependenceFlag == 1 {
				_ = bs.Uint32(16) // dependsOnEsId
			}
			if urlFlag == 1 {
				bs.SkipBits(int(bs.Uint8(8)) * 8)
			}
			if oCRstreamFlag == 1 {
				_ = bs.Uint32(16) // oCREsId
			}
			esd = bs.RemainData()
		case DecoderConfigDescrTag:
			esds.ObjectTypeIndication = bs.Uint8(8)
			esds.StreamType = bs.Uint8(6)
			bs.SkipBits(2 + 24) // upStream, reserved, bufferSizeDB
			esds.MaxBitrate = bs.Uint32(32)
			esds.AvgBitrate = bs.Uint32(32)
			esd = bs.RemainData()
		case DecSpecificInfoTag:
			esds.DecoderSpecificInfo = bs.GetBytes(int(base.SizeOfInstance))
			esd = bs.RemainData()
		default:
			bs.SkipBits(int(base.SizeOfInstance) * 8)
			esd = bs.RemainData()
		}
	}
	return len(buf), nil
}
