package losses

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/marshal"
)

func TestConstructorsDefaultToAuto(t *testing.T) {
	for _, l := range []Loss{
		NewBinaryCrossentropy(true),
		NewCategoricalCrossentropy(false),
		NewSparseCategoricalCrossentropy(false),
		NewMeanSquaredError(""),
		NewMeanAbsoluteError(""),
	} {
		assert.Equal(t, ReductionAuto, l.ReductionMode(), l.ClassName())
	}
	assert.Equal(t, ReductionSum, NewMeanSquaredError(ReductionSum).ReductionMode())
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []Loss{
		&BinaryCrossentropy{FromLogits: true, LabelSmoothing: 0.1, Reduction: ReductionSum, Name: "bce"},
		NewCategoricalCrossentropy(true),
		NewSparseCategoricalCrossentropy(true),
		NewMeanSquaredError(ReductionNone),
		NewMeanAbsoluteError(ReductionMean),
	}

	for _, want := range tests {
		t.Run(want.ClassName(), func(t *testing.T) {
			fields, err := marshal.ForeignFields(want.Params())
			require.NoError(t, err)
			config := map[string]interface{}{}
			for k, v := range fields {
				config[k] = marshal.FromForeign(v)
			}

			got, err := Decode(want.ClassName(), config)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeUnknown(t *testing.T) {
	_, err := Decode("Huber", nil)
	assert.Error(t, err)
}

func TestFromName(t *testing.T) {
	l, ok := FromName("MSE")
	require.True(t, ok)
	assert.IsType(t, &MeanSquaredError{}, l)

	l, ok = FromName("binary_crossentropy")
	require.True(t, ok)
	assert.False(t, l.(*BinaryCrossentropy).FromLogits)

	_, ok = FromName("hinge")
	assert.False(t, ok)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	sess := bridge.NewLocal()
	module, err := sess.Import(ctx, "tensorflow.keras.losses")
	require.NoError(t, err)

	h, err := Create(ctx, sess, module, NewBinaryCrossentropy(true))
	require.NoError(t, err)
	assert.Equal(t, "BinaryCrossentropy", h.Class)

	v, err := sess.GetAttr(ctx, h, "from_logits")
	require.NoError(t, err)
	assert.True(t, v.GetBoolValue())

	_, err = sess.GetAttr(ctx, h, "name")
	assert.True(t, errors.Is(err, bridge.ErrNoAttribute), "empty name is not sent")
}

func TestCompute(t *testing.T) {
	ctx := context.Background()
	sess := bridge.NewLocal()
	module, err := sess.Import(ctx, "tensorflow.keras.losses")
	require.NoError(t, err)

	_, err = Compute(ctx, sess, module, FuncBinaryCrossentropy, []float64{1, 0}, []float64{0.9, 0.2},
		marshal.NewParams().Set("from_logits", false))
	assert.True(t, errors.Is(err, bridge.ErrNotSupported), "local runtime does not evaluate tensors")

	_, err = Compute(ctx, sess, module, FuncMeanSquaredError, struct{}{}, nil, nil)
	assert.True(t, errors.Is(err, marshal.ErrUnsupportedType))
}
