package deeplearning

import "fmt"

// ImageFormat is the layout of a loaded image
type ImageFormat int

const (
	ChannelFirst ImageFormat = iota
	ChannelLast
	GreyScale
)

func (f ImageFormat) String() string {
	switch f {
	case ChannelFirst:
		return "ChannelFirst"
	case ChannelLast:
		return "ChannelLast"
	case GreyScale:
		return "GreyScale"
	}
	return fmt.Sprintf("ImageFormat(%d)", int(f))
}

// InterpolationMethod is the resampling used when resizing images
type InterpolationMethod int

const (
	Nearest InterpolationMethod = iota
	Bilinear
	Bicubic
	Lanczos
	Box
	Hamming
)

var interpolationNames = [...]string{"Nearest", "Bilinear", "Bicubic", "Lanczos", "Box", "Hamming"}

func (m InterpolationMethod) String() string {
	if m >= 0 && int(m) < len(interpolationNames) {
		return interpolationNames[m]
	}
	return fmt.Sprintf("InterpolationMethod(%d)", int(m))
}
