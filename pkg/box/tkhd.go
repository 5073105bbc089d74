package box

import (
	"encoding/binary"
)

// aligned(8) class TrackHeaderBox
//    extends FullBox(‘tkhd’, version, flags){
//    if (version==1) {
//       unsigned int(64)  creation_time;
//       unsigned int(64)  modification_time;
//       unsigned int(32)  track_ID;
//       const unsigned int(32)  reserved = 0;
//       unsigned int(64)  duration;
//    } else { // version==0
//       unsigned int(32)  creation_time;
//       unsigned int(32)  modification_time;
//       unsigned int(32)  track_ID;
//       const unsigned int(32)  reserved = 0;
//       unsigned int(32)  duration;
// }
// const unsigned int(32)[2] reserved = 0;
// template int(16) layer = 0;
// template int(16) alternate_group = 0;
// template int(16) volume = {if track_is_audio 0x0100 else 0};
// const unsigned int(16) reserved = 0;
// template int(32)[9] matrix=
// { 0x00010000,0,0,0,0x00010000,0,0,0,0x40000000 };
//    unsigned int(32) width;
//    unsigned int(32) height;
// }

type TrackHeaderBox struct {
	FullBox
	CreationTime     uint64
	ModificationTime uint64
	TrackID          uint32
	Duration         uint64
	Layer            uint16
	AlternateGroup   uint16
	Volume           uint16
	Matrix           [9]uint32
	Width            uint32 // 16.16 fixed point
	Height           uint32 // 16.16 fixed point
}

func (tkhd *TrackHeaderBox) Decode(buf []byte) (n int, err error) {
	if n, err = tkhd.FullBox.Decode(buf); err != nil {
		return
	}
	need := 80
	if tkhd.Version == 1 {
		need = 92
	}
	if len(buf)-n < need {
		return 0, shortErr(TypeTKHD, need, len(buf)-n)
	}
	if tkhd.Version == 1 {
		tkhd.CreationTime = binary.BigEndian.Uint64(buf[n:])
		n += 8
		tkhd.ModificationTime = binary.BigEndian.Uint64(buf[n:])
		n += 8
		tkhd.TrackID = binary.BigEndian.Uint32(buf[n:])
		n += 8
		tkhd.Duration = binary.BigEndian.Uint64(buf[n:])
		n += 8
	} else {
		tkhd.CreationTime = uint64(binary.BigEndian.Uint32(buf[n:]))
		n += 4
		tkhd.ModificationTime = uint64(binary.BigEndian.Uint32(buf[n:]))
		n += 4
		tkhd.TrackID = binary.BigEndian.Uint32(buf[n:])
		n += 8
		tkhd.Duration = uint64(binary.BigEndian.Uint32(buf[n:]))
		n += 4
	}
	n += 8
	tkhd.Layer = binary.BigEndian.Uint16(buf[n:])
	n += 2
	tkhd.AlternateGroup = binary.BigEndian.Uint16(buf[n:])
	n += 2
	tkhd.Volume = binary.BigEndian.Uint16(buf[n:])
	n += 4
	for i := range tkhd.Matrix {
		tkhd.Matrix[i] = binary.BigEndian.Uint32(buf[n:])
		n += 4
	}
	tkhd.Width = binary.BigEndian.Uint32(buf[n:])
	tkhd.Height = binary.BigEndian.Uint32(buf[n+4:])
	n += 8
	return
}

// PixelWidth drops the fractional part of the 16.16 width.
func (tkhd *TrackHeaderBox) PixelWidth() int {
	return int(tkhd.Width >> 16)
}

func (tkhd *TrackHeaderBox) PixelHeight() int {
	return int(tkhd.Height >> 16)
}
