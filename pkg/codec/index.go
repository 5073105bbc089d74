package codec

type FourCC [4]byte

var (
	FourCC_H265 = FourCC{'h', 'v', 'c', '1'}
	FourCC_HEV1 = FourCC{'h', 'e', 'v', '1'}
	FourCC_DVH1 = FourCC{'d', 'v', 'h', '1'}
	FourCC_DVHE = FourCC{'d', 'v', 'h', 'e'}
	FourCC_MP4A = FourCC{'m', 'p', '4', 'a'}
	FourCC_AC3  = FourCC{'a', 'c', '-', '3'}
	FourCC_EAC3 = FourCC{'e', 'c', '-', '3'}
)

func (f FourCC) String() string {
	return string(f[:])
}

// IsHEVC reports whether f is one of the HEVC sample entry codes, Dolby Vision aliases included.
func (f FourCC) IsHEVC() bool {
	switch f {
	case FourCC_H265, FourCC_HEV1, FourCC_DVH1, FourCC_DVHE:
		return true
	}
	return false
}

// ICodecCtx is a parsed codec configuration.
type ICodecCtx interface {
	FourCC() FourCC
	GetInfo() string
}

var (
	_ ICodecCtx = (*AudioConfig)(nil)
	_ ICodecCtx = (*H265Ctx)(nil)
)
