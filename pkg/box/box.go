package box

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	BasicBoxLen    = 8
	LargeBoxLen    = 16
	FullBoxLen     = 12
	fullHeaderSize = 4
)

var ErrBoxTooShort = errors.New("box too short")

// Type is the four character code of a box.
type Type [4]byte

func f(s string) (t Type) {
	copy(t[:], s)
	return
}

func (t Type) String() string {
	return string(t[:])
}

var (
	TypeFTYP = f("ftyp")
	TypeSTYP = f("styp")
	TypeMOOV = f("moov")
	TypeMVHD = f("mvhd")
	TypeTRAK = f("trak")
	TypeTKHD = f("tkhd")
	TypeMDIA = f("mdia")
	TypeMDHD = f("mdhd")
	TypeHDLR = f("hdlr")
	TypeMINF = f("minf")
	TypeSTBL = f("stbl")
	TypeSTSD = f("stsd")
	TypeMDAT = f("mdat")
	TypeFREE = f("free")
	TypeSIDX = f("sidx")
	TypeMVEX = f("mvex")
	TypeTREX = f("trex")
	TypeMOOF = f("moof")
	TypeMFHD = f("mfhd")
	TypeTRAF = f("traf")
	TypeTFHD = f("tfhd")
	TypeTFDT = f("tfdt")
	TypeTRUN = f("trun")

	TypeHVCC = f("hvcC")
	TypeCOLR = f("colr")
	TypeESDS = f("esds")
	TypeDAC3 = f("dac3")
	TypeDEC3 = f("dec3")
	TypeWAVE = f("wave")

	TypeVIDE = f("vide")
	TypeSOUN = f("soun")

	TypeNCLX = f("nclx")
	TypeNCLC = f("nclc")
)

//	aligned(8) class Box (unsigned int(32) boxtype, optional unsigned int(8)[16] extended_type) {
//	    unsigned int(32) size;
//	    unsigned int(32) type = boxtype;
//	    if (size==1) {
//	       unsigned int(64) largesize;
//	    } else if (size==0) {
//	       // box extends to end of file
//	    }
//	}
type Box struct {
	Type       Type
	Offset     int
	Size       int
	HeaderSize int
}

func (b Box) ContentStart() int {
	return b.Offset + b.HeaderSize
}

func (b Box) ContentEnd() int {
	return b.Offset + b.Size
}

func (b Box) ContentLen() int {
	return b.Size - b.HeaderSize
}

// Content returns the payload of b as a view into buf.
func (b Box) Content(buf []byte) []byte {
	return buf[b.ContentStart():b.ContentEnd():b.ContentEnd()]
}

func (b Box) String() string {
	return fmt.Sprintf("%s@%d+%d", b.Type, b.Offset, b.Size)
}

// Scan lists the boxes found one level deep in buf[start:start+length].
// A box whose size is smaller than its header or which runs past the end of
// the region stops the scan; the boxes read up to that point are returned.
func Scan(buf []byte, start, length int) (boxes []Box) {
	if start < 0 || length < 0 || start > len(buf) {
		return
	}
	end := start + length
	if end > len(buf) {
		end = len(buf)
	}
	for offset := start; end-offset >= BasicBoxLen; {
		b := Box{
			Offset:     offset,
			Size:       int(binary.BigEndian.Uint32(buf[offset:])),
			HeaderSize: BasicBoxLen,
		}
		copy(b.Type[:], buf[offset+4:offset+8])
		switch b.Size {
		case 1:
			if end-offset < LargeBoxLen {
				return
			}
			large := binary.BigEndian.Uint64(buf[offset+8:])
			if large > uint64(end-offset) {
				return
			}
			b.Size = int(large)
			b.HeaderSize = LargeBoxLen
		case 0:
			b.Size = end - offset
		}
		if b.Size < b.HeaderSize || b.Size > end-offset {
			return
		}
		boxes = append(boxes, b)
		offset += b.Size
	}
	return
}

// Children scans the content of parent.
func Children(buf []byte, parent Box) []Box {
	return Scan(buf, parent.ContentStart(), parent.ContentLen())
}

// Find returns the first child of parent with the given type.
func Find(buf []byte, parent Box, typ Type) (Box, bool) {
	for _, b := range Children(buf, parent) {
		if b.Type == typ {
			return b, true
		}
	}
	return Box{}, false
}

// FindAll returns every child of parent with the given type, in order.
func FindAll(buf []byte, parent Box, typ Type) (found []Box) {
	for _, b := range Children(buf, parent) {
		if b.Type == typ {
			found = append(found, b)
		}
	}
	return
}

// FindPath descends from parent through the given chain of types.
func FindPath(buf []byte, parent Box, path ...Type) (Box, bool) {
	cur := parent
	for _, typ := range path {
		var ok bool
		if cur, ok = Find(buf, cur, typ); !ok {
			return Box{}, false
		}
	}
	return cur, true
}

// Root wraps the whole buffer as a pseudo box so Find/FindPath can start at the top level.
func Root(buf []byte) Box {
	return Box{Size: len(buf)}
}

// aligned(8) class FullBox(unsigned int(32) boxtype, unsigned int(8) v, bit(24) f) extends Box(boxtype) {
//     unsigned int(8) version = v;
//     bit(24) flags = f;
// }

type FullBox struct {
	Version uint8
	Flags   uint32
}

func (box *FullBox) Decode(buf []byte) (int, error) {
	if len(buf) < fullHeaderSize {
		return 0, ErrBoxTooShort
	}
	box.Version = buf[0]
	box.Flags = uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	return fullHeaderSize, nil
}

type BoxDecoder interface {
	Decode(buf []byte) (int, error)
}

func shortErr(typ Type, need, have int) error {
	return fmt.Errorf("%s: need %d bytes, have %d: %w", typ, need, have, ErrBoxTooShort)
}
