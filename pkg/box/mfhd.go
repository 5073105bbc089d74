package box

import "encoding/binary"

// aligned(8) class MovieFragmentHeaderBox extends FullBox(‘mfhd’, 0, 0){
// 	unsigned int(32) sequence_number;
// }

type MovieFragmentHeaderBox struct {
	FullBox
	SequenceNumber uint32
}

func (mfhd *MovieFragmentHeaderBox) Decode(buf []byte) (n int, err error) {
	if n, err = mfhd.FullBox.Decode(buf); err != nil {
		return
	}
	if len(buf)-n < 4 {
		return 0, shortErr(TypeMFHD, n+4, len(buf))
	}
	mfhd.SequenceNumber = binary.BigEndian.Uint32(buf[n:])
	return n + 4, nil
}
