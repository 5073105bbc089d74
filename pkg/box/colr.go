package box

import "encoding/binary"

// class ColourInformationBox extends Box('colr'){
// 	unsigned int(32) colour_type;
// 	if (colour_type == 'nclx') {
// 		unsigned int(16) colour_primaries;
// 		unsigned int(16) transfer_characteristics;
// 		unsigned int(16) matrix_coefficients;
// 		unsigned int(1) full_range_flag;
// 		unsigned int(7) reserved = 0;
// 	}
// 	else if (colour_type == 'rICC') { ICC_profile; }
// 	else if (colour_type == 'prof') { ICC_profile; }
// }

type ColourInformationBox struct {
	ColourType              Type
	ColourPrimaries         uint16
	TransferCharacteristics uint16
	MatrixCoefficients      uint16
	FullRange               bool
}

// Decode reads nclx and the QuickTime nclc variant; ICC profiles are skipped.
func (colr *ColourInformationBox) Decode(buf []byte) (n int, err error) {
	if len(buf) < 4 {
		return 0, shortErr(TypeCOLR, 4, len(buf))
	}
	copy(colr.ColourType[:], buf)
	n = 4
	if colr.ColourType != TypeNCLX && colr.ColourType != TypeNCLC {
		return len(buf), nil
	}
	if len(buf)-n < 6 {
		return 0, shortErr(TypeCOLR, 10, len(buf))
	}
	colr.ColourPrimaries = binary.BigEndian.Uint16(buf[n:])
	colr.TransferCharacteristics = binary.BigEndian.Uint16(buf[n+2:])
	colr.MatrixCoefficients = binary.BigEndian.Uint16(buf[n+4:])
	n += 6
	if colr.ColourType == TypeNCLX && len(buf) > n {
		colr.FullRange = buf[n]&0x80 != 0
		n++
	}
	return
}

// HasNCLX reports whether the box carried coded colour parameters.
func (colr *ColourInformationBox) HasNCLX() bool {
	return colr.ColourType == TypeNCLX || colr.ColourType == TypeNCLC
}
