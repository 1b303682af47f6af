package preprocessing

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/convert"
	"github.com/tsawler/go-keras/deeplearning"
	"github.com/tsawler/go-keras/keras"
	"github.com/tsawler/go-keras/marshal"
)

// ImageOptions configures LoadImage. Resize nil keeps the stored size.
type ImageOptions struct {
	Resize            *deeplearning.Shape2d
	Format            deeplearning.ImageFormat
	Interpolation     deeplearning.InterpolationMethod
	AddBatchDimension bool
}

func validFormat(f deeplearning.ImageFormat) error {
	switch f {
	case deeplearning.ChannelFirst, deeplearning.ChannelLast, deeplearning.GreyScale:
		return nil
	}
	return errors.Errorf("invalid image format %s", f)
}

// LoadImage reads an image file into an array in the runtime with
// preprocessing.image.load_img and img_to_array
func LoadImage(ctx context.Context, rt *keras.Runtime, path string, opts ImageOptions) (*structpb.Value, error) {
	if err := validFormat(opts.Format); err != nil {
		return nil, err
	}
	dataFormat, colorMode := convert.ImageFormatToKeras(opts.Format)
	module := keras.ModulePreprocessing + ".image"

	p := marshal.NewParams().
		Set("path", path).
		Set("color_mode", colorMode).
		Set("interpolation", convert.InterpolationToKeras(opts.Interpolation))
	if opts.Resize != nil {
		p.Set("target_size", convert.ToTuple2(*opts.Resize))
	}
	img, err := rt.CallFunction(ctx, module, "load_img", p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}

	array, err := rt.CallFunction(ctx, module, "img_to_array", marshal.NewParams().
		Set("img", img).
		Set("data_format", dataFormat))
	if err != nil {
		return nil, err
	}
	if !opts.AddBatchDimension {
		return array, nil
	}
	return rt.CallFunction(ctx, keras.ModuleBackend, "expand_dims", marshal.NewParams().
		Set("x", array).
		Set("axis", 0))
}

// LoadImageBatch loads every image with opts and stacks them along a new
// leading batch axis
func LoadImageBatch(ctx context.Context, rt *keras.Runtime, paths []string, opts ImageOptions) (*structpb.Value, error) {
	if len(paths) == 0 {
		return nil, errors.New("no images to load")
	}
	if err := validFormat(opts.Format); err != nil {
		return nil, err
	}
	opts.AddBatchDimension = false

	arrays := make([]interface{}, len(paths))
	for i, path := range paths {
		a, err := LoadImage(ctx, rt, path, opts)
		if err != nil {
			return nil, err
		}
		arrays[i] = a
	}
	return rt.CallFunction(ctx, keras.ModuleBackend, "stack", marshal.NewParams().
		Set("x", arrays).
		Set("axis", 0))
}
