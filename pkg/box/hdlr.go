package box

// aligned(8) class HandlerBox extends FullBox(‘hdlr’, version = 0, 0) {
//  unsigned int(32) pre_defined = 0;
// 	unsigned int(32) handler_type;
// 	const unsigned int(32)[3] reserved = 0;
// 	   string   name;
// 	}

type HandlerBox struct {
	FullBox
	HandlerType Type
	Name        string
}

func (hdlr *HandlerBox) Decode(buf []byte) (n int, err error) {
	if n, err = hdlr.FullBox.Decode(buf); err != nil {
		return
	}
	if len(buf)-n < 20 {
		return 0, shortErr(TypeHDLR, 20, len(buf)-n)
	}
	copy(hdlr.HandlerType[:], buf[n+4:n+8])
	n += 20
	name := buf[n:]
	for i, c := range name {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	hdlr.Name = string(name)
	return len(buf), nil
}
