package box

import (
	"encoding/binary"
)

// aligned(8) class MediaHeaderBox extends FullBox(‘mdhd’, version, 0) {
//  if (version==1) {
// 	unsigned int(64)  creation_time;
// 	unsigned int(64)  modification_time;
// 	unsigned int(32)  timescale;
// 	unsigned int(64)  duration;
//  } else { // version==0
// 	unsigned int(32)  creation_time;
// 	unsigned int(32)  modification_time;
// 	unsigned int(32)  timescale;
// 	unsigned int(32)  duration;
// }
// bit(1) pad = 0;
// unsigned int(5)[3] language; // ISO-639-2/T language code
// unsigned int(16) pre_defined = 0;
// }

type MediaHeaderBox struct {
	FullBox
	CreationTime     uint64
	ModificationTime uint64
	Timescale        uint32
	Duration         uint64
	Language         [3]byte
}

func (mdhd *MediaHeaderBox) Decode(buf []byte) (n int, err error) {
	if n, err = mdhd.FullBox.Decode(buf); err != nil {
		return
	}
	need := 20
	if mdhd.Version == 1 {
		need = 32
	}
	if len(buf)-n < need {
		return 0, shortErr(TypeMDHD, need, len(buf)-n)
	}
	if mdhd.Version == 1 {
		mdhd.CreationTime = binary.BigEndian.Uint64(buf[n:])
		n += 8
		mdhd.ModificationTime = binary.BigEndian.Uint64(buf[n:])
		n += 8
		mdhd.Timescale = binary.BigEndian.Uint32(buf[n:])
		n += 4
		mdhd.Duration = binary.BigEndian.Uint64(buf[n:])
		n += 8
	} else {
		mdhd.CreationTime = uint64(binary.BigEndian.Uint32(buf[n:]))
		n += 4
		mdhd.ModificationTime = uint64(binary.BigEndian.Uint32(buf[n:]))
		n += 4
		mdhd.Timescale = binary.BigEndian.Uint32(buf[n:])
		n += 4
		mdhd.Duration = uint64(binary.BigEndian.Uint32(buf[n:]))
		n += 4
	}
	lang := binary.BigEndian.Uint16(buf[n:])
	for i := range mdhd.Language {
		mdhd.Language[i] = byte(lang>>(10-5*i))&0x1f + 0x60
	}
	n += 4
	return
}
