package box

import "encoding/binary"

// aligned(8) class TrackExtendsBox extends FullBox(‘trex’, 0, 0){
// 	unsigned int(32) track_ID;
// 	unsigned int(32) default_sample_description_index;
// 	unsigned int(32) default_sample_duration;
// 	unsigned int(32) default_sample_size;
// 	unsigned int(32) default_sample_flags
// }

type TrackExtendsBox struct {
	FullBox
	TrackID                       uint32
	DefaultSampleDescriptionIndex uint32
	DefaultSampleDuration         uint32
	DefaultSampleSize             uint32
	DefaultSampleFlags            uint32
}

func (trex *TrackExtendsBox) Decode(buf []byte) (n int, err error) {
	if n, err = trex.FullBox.Decode(buf); err != nil {
		return
	}
	if len(buf)-n < 20 {
		return 0, shortErr(TypeTREX, n+20, len(buf))
	}
	trex.TrackID = binary.BigEndian.Uint32(buf[n:])
	n += 4
	trex.DefaultSampleDescriptionIndex = binary.BigEndian.Uint32(buf[n:])
	n += 4
	trex.DefaultSampleDuration = binary.BigEndian.Uint32(buf[n:])
	n += 4
	trex.DefaultSampleSize = binary.BigEndian.Uint32(buf[n:])
	n += 4
	trex.DefaultSampleFlags = binary.BigEndian.Uint32(buf[n:])
	n += 4
	return
}
