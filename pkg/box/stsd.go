package box

import (
	"encoding/binary"
	"math"
)

// aligned(8) class SampleDescriptionBox (unsigned int(32) handler_type) extends FullBox('stsd', 0, 0){
// 	int i ;
// 	unsigned int(32) entry_count;
// 	   for (i = 1 ; i <= entry_count ; i++){
// 		  switch (handler_type){
// 			 case ‘soun’: // for audio tracks
// 				AudioSampleEntry();
// 				break;
// 			 case ‘vide’: // for video tracks
// 				VisualSampleEntry();
// 				break;
// 		}
// 	}
// }

// SampleEntries returns the entry boxes of stsd, at most entry_count of them.
func SampleEntries(buf []byte, stsd Box) ([]Box, error) {
	content := stsd.Content(buf)
	var fullbox FullBox
	n, err := fullbox.Decode(content)
	if err != nil {
		return nil, err
	}
	if len(content)-n < 4 {
		return nil, shortErr(TypeSTSD, 4, len(content)-n)
	}
	count := binary.BigEndian.Uint32(content[n:])
	n += 4
	entries := Scan(buf, stsd.ContentStart()+n, stsd.ContentLen()-n)
	if uint32(len(entries)) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// aligned(8) abstract class SampleEntry (unsigned int(32) format) extends Box(format){
// 	const unsigned int(8)[6] reserved = 0;
// 	unsigned int(16) data_reference_index;
// 	}

const (
	SampleEntryLen       = 8
	VisualSampleEntryLen = SampleEntryLen + 70
	AudioSampleEntryLen  = SampleEntryLen + 20
)

// class VisualSampleEntry(codingname) extends SampleEntry (codingname){
//  unsigned int(16) pre_defined = 0;
// 	const unsigned int(16) reserved = 0;
// 	unsigned int(32)[3] pre_defined = 0;
// 	unsigned int(16) width;
// 	unsigned int(16) height;
// 	template unsigned int(32) horizresolution = 0x00480000; // 72 dpi
//  template unsigned int(32) vertresolution = 0x00480000; // 72 dpi
//  const unsigned int(32) reserved = 0;
// 	template unsigned int(16) frame_count = 1;
// 	string[32] compressorname;
// 	template unsigned int(16) depth = 0x0018;
// 	int(16) pre_defined = -1;
// 	// other boxes from derived specifications
// }

type VisualSampleEntry struct {
	Format             Type
	DataReferenceIndex uint16
	Width, Height      uint16
	CompressorName     string
	Depth              uint16
	// ChildOffset is where the nested boxes (hvcC, colr, ...) start, relative to the entry content.
	ChildOffset int
}

func (entry *VisualSampleEntry) Decode(buf []byte) (n int, err error) {
	if len(buf) < VisualSampleEntryLen {
		return 0, shortErr(entry.Format, VisualSampleEntryLen, len(buf))
	}
	entry.DataReferenceIndex = binary.BigEndian.Uint16(buf[6:])
	n = SampleEntryLen + 16
	entry.Width = binary.BigEndian.Uint16(buf[n:])
	entry.Height = binary.BigEndian.Uint16(buf[n+2:])
	n += 4 + 12 + 2
	nameLen := int(buf[n])
	if nameLen > 31 {
		nameLen = 31
	}
	entry.CompressorName = string(buf[n+1 : n+1+nameLen])
	n += 32
	entry.Depth = binary.BigEndian.Uint16(buf[n:])
	n += 4
	entry.ChildOffset = n
	return
}

// Children scans the boxes nested after the fixed visual fields of entry.
func (entry *VisualSampleEntry) Children(buf []byte, b Box) []Box {
	return Scan(buf, b.ContentStart()+entry.ChildOffset, b.ContentLen()-entry.ChildOffset)
}

// class AudioSampleEntry(codingname) extends SampleEntry (codingname){
//  const unsigned int(32)[2] reserved = 0;
// 	template unsigned int(16) channelcount = 2;
// 	template unsigned int(16) samplesize = 16;
// 	unsigned int(16) pre_defined = 0;
// 	const unsigned int(16) reserved = 0 ;
// 	template unsigned int(32) samplerate = { default samplerate of media}<<16;
// }
//
// QuickTime sound descriptions reuse the first reserved field as a version:
// version 1 appends 16 bytes, version 2 appends 36 bytes carrying a float64 rate
// and a 32-bit channel count (ffmpeg mov.c mov_parse_stsd_audio).

type AudioSampleEntry struct {
	Format             Type
	DataReferenceIndex uint16
	Version            uint16
	ChannelCount       uint16
	SampleSize         uint16
	SampleRate         uint32
	ChildOffset        int
}

func (entry *AudioSampleEntry) Decode(buf []byte) (n int, err error) {
	if len(buf) < AudioSampleEntryLen {
		return 0, shortErr(entry.Format, AudioSampleEntryLen, len(buf))
	}
	entry.DataReferenceIndex = binary.BigEndian.Uint16(buf[6:])
	n = SampleEntryLen
	entry.Version = binary.BigEndian.Uint16(buf[n:])
	n += 8
	entry.ChannelCount = binary.BigEndian.Uint16(buf[n:])
	n += 2
	entry.SampleSize = binary.BigEndian.Uint16(buf[n:])
	n += 6
	entry.SampleRate = binary.BigEndian.Uint32(buf[n:]) >> 16
	n += 4
	switch entry.Version {
	case 1:
		if len(buf)-n >= 16 {
			n += 16
		}
	case 2:
		if len(buf)-n >= 36 {
			rate := math.Float64frombits(binary.BigEndian.Uint64(buf[n+4:]))
			if rate > 0 && rate < math.MaxUint32 {
				entry.SampleRate = uint32(rate)
			}
			entry.ChannelCount = uint16(binary.BigEndian.Uint32(buf[n+12:]))
			n += 36
		}
	}
	entry.ChildOffset = n
	return
}

// Children scans the boxes nested after the fixed audio fields of entry.
func (entry *AudioSampleEntry) Children(buf []byte, b Box) []Box {
	return Scan(buf, b.ContentStart()+entry.ChildOffset, b.ContentLen()-entry.ChildOffset)
}

// FindChild looks for typ among the entry's children and, for QuickTime files,
// inside a nested 'wave' box.
func (entry *AudioSampleEntry) FindChild(buf []byte, b Box, typ Type) (Box, bool) {
	for _, child := range entry.Children(buf, b) {
		switch child.Type {
		case typ:
			return child, true
		case TypeWAVE:
			if found, ok := Find(buf, child, typ); ok {
				return found, true
			}
		}
	}
	return Box{}, false
}
