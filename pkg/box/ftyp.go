package box

import "encoding/binary"

// aligned(8) class FileTypeBox extends Box(‘ftyp’) {
// 	unsigned int(32) major_brand;
// 	unsigned int(32) minor_version;
// 	unsigned int(32) compatible_brands[]; // to end of the box
// }

type FileTypeBox struct {
	MajorBrand       Type
	MinorVersion     uint32
	CompatibleBrands []Type
}

func (ftyp *FileTypeBox) Decode(buf []byte) (n int, err error) {
	if len(buf) < 8 {
		return 0, shortErr(TypeFTYP, 8, len(buf))
	}
	copy(ftyp.MajorBrand[:], buf)
	ftyp.MinorVersion = binary.BigEndian.Uint32(buf[4:])
	for n = 8; len(buf)-n >= 4; n += 4 {
		var brand Type
		copy(brand[:], buf[n:])
		ftyp.CompatibleBrands = append(ftyp.CompatibleBrands, brand)
	}
	return
}

func (ftyp *FileTypeBox) HasBrand(brand Type) bool {
	if ftyp.MajorBrand == brand {
		return true
	}
	for _, b := range ftyp.CompatibleBrands {
		if b == brand {
			return true
		}
	}
	return false
}
