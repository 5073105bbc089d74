package fmp4

import (
	"bytes"
	"encoding/binary"

	"m7s.live/player/pkg/box"
)

func mkbox(typ string, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	buf := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(buf, uint32(8+len(body)))
	copy(buf[4:], typ)
	return append(buf, body...)
}

func mkfull(typ string, version uint8, flags uint32, payload ...[]byte) []byte {
	head := []byte{version, byte(flags >> 16), byte(flags >> 8), byte(flags)}
	return mkbox(typ, append([][]byte{head}, payload...)...)
}

func u16(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }
func u64(v uint64) []byte { return binary.BigEndian.AppendUint64(nil, v) }

func tkhd(trackID uint32, width, height uint16) []byte {
	return mkfull("tkhd", 0, 7,
		u32(0), u32(0), u32(trackID), u32(0), u32(0),
		make([]byte, 8), u16(0), u16(0), u16(0), u16(0),
		make([]byte, 36),
		u32(uint32(width)<<16), u32(uint32(height)<<16))
}

func mdhd(timescale uint32) []byte {
	return mkfull("mdhd", 0, 0, u32(0), u32(0), u32(timescale), u32(0), u16(0x55c4), u16(0))
}

func hdlr(handler string) []byte {
	return mkfull("hdlr", 0, 0, u32(0), []byte(handler), make([]byte, 12), []byte("handler\x00"))
}

func trak(trackID, timescale uint32, handler string, width, height uint16, entry []byte) []byte {
	stsd := mkfull("stsd", 0, 0, u32(1), entry)
	return mkbox("trak",
		tkhd(trackID, width, height),
		mkbox("mdia", mdhd(timescale), hdlr(handler),
			mkbox("minf", mkbox("stbl", stsd))))
}

func visualEntry(tag string, width, height uint16, children ...[]byte) []byte {
	fields := make([]byte, box.VisualSampleEntryLen)
	binary.BigEndian.PutUint16(fields[6:], 1)
	binary.BigEndian.PutUint16(fields[24:], width)
	binary.BigEndian.PutUint16(fields[26:], height)
	binary.BigEndian.PutUint16(fields[74:], 0x18)
	binary.BigEndian.PutUint16(fields[76:], 0xffff)
	return mkbox(tag, append([][]byte{fields}, children...)...)
}

func audioEntry(tag string, channels uint16, rate uint32, children ...[]byte) []byte {
	fields := make([]byte, box.AudioSampleEntryLen)
	binary.BigEndian.PutUint16(fields[6:], 1)
	binary.BigEndian.PutUint16(fields[16:], channels)
	binary.BigEndian.PutUint16(fields[18:], 16)
	binary.BigEndian.PutUint32(fields[24:], rate<<16)
	return mkbox(tag, append([][]byte{fields}, children...)...)
}

func esds(asc []byte) []byte {
	dsi := append([]byte{box.DecSpecificInfoTag, byte(len(asc))}, asc...)
	dcd := append([]byte{box.DecoderConfigDescrTag, byte(13 + len(dsi)), box.ObjectTypeAudioISO14496, 0x15, 0, 0, 0}, make([]byte, 8)...)
	dcd = append(dcd, dsi...)
	sl := []byte{box.SLConfigDescrTag, 1, 2}
	esd := append([]byte{box.ES_DescrTag, byte(3 + len(dcd) + len(sl)), 0, 1, 0}, dcd...)
	return mkfull("esds", 0, 0, append(esd, sl...))
}

var (
	testHVCC   = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	aacLCStereo = []byte{0x11, 0x90} // AAC LC, 48000, channel configuration 2
)

func hevcTrak(trackID uint32, tag string) []byte {
	return trak(trackID, 90000, "vide", 1920, 1080, visualEntry(tag, 1920, 1080, mkbox("hvcC", testHVCC)))
}

func aacTrak(trackID uint32, channels uint16, asc []byte) []byte {
	return trak(trackID, 48000, "soun", 0, 0, audioEntry("mp4a", channels, 48000, esds(asc)))
}

func trex(trackID, duration, size, flags uint32) []byte {
	return mkfull("trex", 0, 0, u32(trackID), u32(1), u32(duration), u32(size), u32(flags))
}

func initSegment(traks []byte, trexes ...[]byte) []byte {
	ftyp := mkbox("ftyp", []byte("iso6"), u32(0), []byte("iso6"), []byte("cmfc"))
	moov := [][]byte{mkfull("mvhd", 0, 0, make([]byte, 96)), traks}
	if len(trexes) > 0 {
		moov = append(moov, mkbox("mvex", trexes...))
	}
	return append(ftyp, mkbox("moov", moov...)...)
}

type testRun struct {
	flags   uint32 // box.TR_FLAG_DATA_OFFSET makes the builder point the run at its bytes in mdat
	first   uint32
	entries []box.TrunEntry
	// sizes of the sample bytes placed in mdat; defaults to the entry sizes
	sizes []uint32
	// sample_count written instead of len(entries) when non-zero
	count uint32
}

type testTraf struct {
	trackID     uint32
	tfhdFlags   uint32
	baseOffset  uint64
	duration    uint32
	size        uint32
	sampleFlags uint32
	baseTime    uint64
	tfdtVersion uint8
	noTfdt      bool
	runs        []testRun
}

func (r *testRun) dataSizes() []uint32 {
	if r.sizes != nil {
		return r.sizes
	}
	sizes := make([]uint32, len(r.entries))
	for i, e := range r.entries {
		sizes[i] = e.SampleSize
	}
	return sizes
}

func (t *testTraf) encode(dataOffsets []int32) []byte {
	var tfhd [][]byte
	tfhd = append(tfhd, u32(t.trackID))
	if t.tfhdFlags&box.TF_FLAG_BASE_DATA_OFFSET != 0 {
		tfhd = append(tfhd, u64(t.baseOffset))
	}
	if t.tfhdFlags&box.TF_FLAG_DEFAULT_SAMPLE_DURATION_PRESENT != 0 {
		tfhd = append(tfhd, u32(t.duration))
	}
	if t.tfhdFlags&box.TF_FLAG_DEFAULT_SAMPLE_SIZE_PRESENT != 0 {
		tfhd = append(tfhd, u32(t.size))
	}
	if t.tfhdFlags&box.TF_FLAG_DEFAULT_SAMPLE_FLAGS_PRESENT != 0 {
		tfhd = append(tfhd, u32(t.sampleFlags))
	}
	children := [][]byte{mkfull("tfhd", 0, t.tfhdFlags, tfhd...)}
	if !t.noTfdt {
		if t.tfdtVersion == 1 {
			children = append(children, mkfull("tfdt", 1, 0, u64(t.baseTime)))
		} else {
			children = append(children, mkfull("tfdt", 0, 0, u32(uint32(t.baseTime))))
		}
	}
	for i, run := range t.runs {
		count := uint32(len(run.entries))
		if run.count != 0 {
			count = run.count
		}
		fields := [][]byte{u32(count)}
		if run.flags&box.TR_FLAG_DATA_OFFSET != 0 {
			fields = append(fields, u32(uint32(dataOffsets[i])))
		}
		if run.flags&box.TR_FLAG_DATA_FIRST_SAMPLE_FLAGS != 0 {
			fields = append(fields, u32(run.first))
		}
		for _, e := range run.entries {
			if run.flags&box.TR_FLAG_DATA_SAMPLE_DURATION != 0 {
				fields = append(fields, u32(e.SampleDuration))
			}
			if run.flags&box.TR_FLAG_DATA_SAMPLE_SIZE != 0 {
				fields = append(fields, u32(e.SampleSize))
			}
			if run.flags&box.TR_FLAG_DATA_SAMPLE_FLAGS != 0 {
				fields = append(fields, u32(e.SampleFlags))
			}
			if run.flags&box.TR_FLAG_DATA_SAMPLE_COMPOSITION_TIME != 0 {
				fields = append(fields, u32(uint32(e.SampleCompositionTimeOffset)))
			}
		}
		children = append(children, mkfull("trun", 0, run.flags, fields...))
	}
	return mkbox("traf", children...)
}

// sampleByte is the fill value of sample i of a track in the generated mdat.
func sampleByte(trackID uint32, i int) byte {
	return byte(trackID<<5) | byte(i&0x1f)
}

// mediaSegment lays out moof then mdat holding every run's bytes in order.
// Runs flagged with a data offset point at their bytes relative to the moof start.
func mediaSegment(seq uint32, trafs ...testTraf) []byte {
	encode := func(offsets [][]int32) []byte {
		children := [][]byte{mkfull("mfhd", 0, 0, u32(seq))}
		for i := range trafs {
			children = append(children, trafs[i].encode(offsets[i]))
		}
		return mkbox("moof", children...)
	}
	offsets := make([][]int32, len(trafs))
	for i := range trafs {
		offsets[i] = make([]int32, len(trafs[i].runs))
	}
	moofSize := len(encode(offsets))
	var mdat []byte
	for i := range trafs {
		index := 0
		for j := range trafs[i].runs {
			offsets[i][j] = int32(moofSize + 8 + len(mdat))
			for _, size := range trafs[i].runs[j].dataSizes() {
				mdat = append(mdat, bytes.Repeat([]byte{sampleByte(trafs[i].trackID, index)}, int(size))...)
				index++
			}
		}
	}
	return append(encode(offsets), mkbox("mdat", mdat)...)
}

func sizes(n ...uint32) (entries []box.TrunEntry) {
	for _, size := range n {
		entries = append(entries, box.TrunEntry{SampleSize: size})
	}
	return
}

type recorder struct {
	events []Event
}

func (r *recorder) Report(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) kinds(kind EventKind) (events []Event) {
	for _, e := range r.events {
		if e.Kind == kind {
			events = append(events, e)
		}
	}
	return
}
