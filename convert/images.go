package convert

import (
	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/layers"
)

// Keras colour modes of load_img
const (
	ColorModeRGB       = "rgb"
	ColorModeGrayscale = "grayscale"
)

// ImageFormatToKeras returns the data format and colour mode that load an
// image in format f. Grey scale images keep their single channel last.
func ImageFormatToKeras(f deeplearning.ImageFormat) (dataFormat, colorMode string) {
	switch f {
	case deeplearning.ChannelLast:
		return layers.ChannelsLast, ColorModeRGB
	case deeplearning.GreyScale:
		return layers.ChannelsLast, ColorModeGrayscale
	}
	return layers.ChannelsFirst, ColorModeRGB
}

// InterpolationToKeras returns the PIL resampling name Keras uses for m.
// Unknown methods are "nearest".
func InterpolationToKeras(m deeplearning.InterpolationMethod) string {
	switch m {
	case deeplearning.Bilinear:
		return "bilinear"
	case deeplearning.Bicubic:
		return "bicubic"
	case deeplearning.Lanczos:
		return "lanczos"
	case deeplearning.Box:
		return "box"
	case deeplearning.Hamming:
		return "hamming"
	}
	return "nearest"
}
