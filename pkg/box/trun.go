package box

import "encoding/binary"

// aligned(8) class TrackRunBox extends FullBox(‘trun’, version, tr_flags) {
//      unsigned int(32) sample_count;
//      // the following are optional fields
//      signed int(32) data_offset;
//       unsigned int(32) first_sample_flags;
//      // all fields in the following array are optional
//      {
//          unsigned int(32) sample_duration;
//          unsigned int(32) sample_size;
//          unsigned int(32) sample_flags
//          if (version == 0)
//          {
//              unsigned int(32) sample_composition_time_offset;
//          }
//          else
//          {
//              signed int(32) sample_composition_time_offset;
//          }
//      }[ sample_count ]
// }

const (
	TR_FLAG_DATA_OFFSET                  uint32 = 0x000001
	TR_FLAG_DATA_FIRST_SAMPLE_FLAGS      uint32 = 0x000004
	TR_FLAG_DATA_SAMPLE_DURATION         uint32 = 0x000100
	TR_FLAG_DATA_SAMPLE_SIZE             uint32 = 0x000200
	TR_FLAG_DATA_SAMPLE_FLAGS            uint32 = 0x000400
	TR_FLAG_DATA_SAMPLE_COMPOSITION_TIME uint32 = 0x000800
)

type TrunEntry struct {
	SampleDuration uint32
	SampleSize     uint32
	SampleFlags    uint32
	// SampleCompositionTimeOffset is read as signed for both versions;
	// version 0 writers emit negative offsets in practice.
	SampleCompositionTimeOffset int32
}

type TrackRunBox struct {
	FullBox
	SampleCount      uint32
	DataOffset       int32
	FirstSampleFlags uint32
	EntryList        []TrunEntry
}

func (trun *TrackRunBox) HasDataOffset() bool {
	return trun.Flags&TR_FLAG_DATA_OFFSET != 0
}

func (trun *TrackRunBox) HasFirstSampleFlags() bool {
	return trun.Flags&TR_FLAG_DATA_FIRST_SAMPLE_FLAGS != 0
}

func (trun *TrackRunBox) HasDuration() bool {
	return trun.Flags&TR_FLAG_DATA_SAMPLE_DURATION != 0
}

func (trun *TrackRunBox) HasSize() bool {
	return trun.Flags&TR_FLAG_DATA_SAMPLE_SIZE != 0
}

func (trun *TrackRunBox) HasFlags() bool {
	return trun.Flags&TR_FLAG_DATA_SAMPLE_FLAGS != 0
}

func (trun *TrackRunBox) HasCompositionTimeOffset() bool {
	return trun.Flags&TR_FLAG_DATA_SAMPLE_COMPOSITION_TIME != 0
}

// EntrySize is the byte length of one per-sample record.
func (trun *TrackRunBox) EntrySize() (n int) {
	for _, has := range []bool{trun.HasDuration(), trun.HasSize(), trun.HasFlags(), trun.HasCompositionTimeOffset()} {
		if has {
			n += 4
		}
	}
	return
}

// Decode reads the run header and as many whole entries as buf holds. When the
// table is cut short the entries read so far are kept and ErrBoxTooShort is returned.
// A run without per-sample fields leaves EntryList nil; Entry yields zero records for it.
func (trun *TrackRunBox) Decode(buf []byte) (n int, err error) {
	if n, err = trun.FullBox.Decode(buf); err != nil {
		return
	}
	need := n + 4
	if trun.HasDataOffset() {
		need += 4
	}
	if trun.HasFirstSampleFlags() {
		need += 4
	}
	if len(buf) < need {
		return 0, shortErr(TypeTRUN, need, len(buf))
	}
	trun.SampleCount = binary.BigEndian.Uint32(buf[n:])
	n += 4
	if trun.HasDataOffset() {
		trun.DataOffset = int32(binary.BigEndian.Uint32(buf[n:]))
		n += 4
	}
	if trun.HasFirstSampleFlags() {
		trun.FirstSampleFlags = binary.BigEndian.Uint32(buf[n:])
		n += 4
	}
	entrySize := trun.EntrySize()
	if entrySize == 0 {
		// every sample takes the track defaults; EntryList stays empty
		return
	}
	count := int(trun.SampleCount)
	if count > (len(buf)-n)/entrySize {
		count = (len(buf) - n) / entrySize
		err = shortErr(TypeTRUN, n+int(trun.SampleCount)*entrySize, len(buf))
	}
	trun.EntryList = make([]TrunEntry, count)
	for i := range trun.EntryList {
		entry := &trun.EntryList[i]
		if trun.HasDuration() {
			entry.SampleDuration = binary.BigEndian.Uint32(buf[n:])
			n += 4
		}
		if trun.HasSize() {
			entry.SampleSize = binary.BigEndian.Uint32(buf[n:])
			n += 4
		}
		if trun.HasFlags() {
			entry.SampleFlags = binary.BigEndian.Uint32(buf[n:])
			n += 4
		}
		if trun.HasCompositionTimeOffset() {
			entry.SampleCompositionTimeOffset = int32(binary.BigEndian.Uint32(buf[n:]))
			n += 4
		}
	}
	return
}

// Entry returns record i, or a zero record when the run carries no per-sample fields.
func (trun *TrackRunBox) Entry(i int) TrunEntry {
	if i < len(trun.EntryList) {
		return trun.EntryList[i]
	}
	return TrunEntry{}
}

// Len is the number of samples described, bounded by the entries actually present.
func (trun *TrackRunBox) Len() int {
	if trun.EntrySize() == 0 {
		return int(trun.SampleCount)
	}
	return len(trun.EntryList)
}
