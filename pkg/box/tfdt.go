package box

import "encoding/binary"

// aligned(8) class TrackFragmentBaseMediaDecodeTimeBox extends FullBox(‘tfdt’, version, 0) {
// 	if (version==1) {
// 		  unsigned int(64) baseMediaDecodeTime;
// 	   } else { // version==0
// 		  unsigned int(32) baseMediaDecodeTime;
// 	   }
// 	}

type TrackFragmentBaseMediaDecodeTimeBox struct {
	FullBox
	BaseMediaDecodeTime uint64
}

func (tfdt *TrackFragmentBaseMediaDecodeTimeBox) Decode(buf []byte) (n int, err error) {
	if n, err = tfdt.FullBox.Decode(buf); err != nil {
		return
	}
	if tfdt.Version == 1 {
		if len(buf)-n < 8 {
			return 0, shortErr(TypeTFDT, n+8, len(buf))
		}
		tfdt.BaseMediaDecodeTime = binary.BigEndian.Uint64(buf[n:])
		return n + 8, nil
	}
	if len(buf)-n < 4 {
		return 0, shortErr(TypeTFDT, n+4, len(buf))
	}
	tfdt.BaseMediaDecodeTime = uint64(binary.BigEndian.Uint32(buf[n:]))
	return n + 4, nil
}
