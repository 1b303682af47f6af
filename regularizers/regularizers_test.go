package regularizers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/marshal"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, L1L2{L1: 0.01, L2: 0.01}, DefaultL1L2())
	assert.Equal(t, MaxNorm{MaxValue: 2}, DefaultMaxNorm())
	assert.Equal(t, 1.0, DefaultMinMaxNorm().MaxValue)
}

func TestSerializeAsLayerArgument(t *testing.T) {
	v, err := marshal.ToForeign(DefaultL1L2())
	require.NoError(t, err)

	f := v.GetStructValue().GetFields()
	assert.Equal(t, "L1L2", f["class_name"].GetStringValue())
	cfg := f["config"].GetStructValue().GetFields()
	assert.Equal(t, 0.01, cfg["l1"].GetNumberValue())
	assert.Equal(t, 0.01, cfg["l2"].GetNumberValue())
}

func TestDecodeRoundTrip(t *testing.T) {
	records := []marshal.Config{
		L1L2{L1: 0.1, L2: 0.2},
		L1{L1: 0.3},
		L2{L2: 0.4},
		MaxNorm{MaxValue: 3, Axis: 1},
		NonNeg{},
		UnitNorm{Axis: 2},
		MinMaxNorm{MinValue: 0.5, MaxValue: 2, Rate: 0.9, Axis: 0},
	}

	for _, r := range records {
		t.Run(r.ClassName(), func(t *testing.T) {
			v, err := marshal.ToForeign(r)
			require.NoError(t, err)
			cfg := marshal.FromForeign(v.GetStructValue().GetFields()["config"]).(map[string]interface{})

			got, ok := Decode(r.ClassName(), cfg)
			require.True(t, ok)
			assert.Equal(t, r, got)
		})
	}

	_, ok := Decode("OrthogonalRegularizer", nil)
	assert.False(t, ok)
}

func TestCreate(t *testing.T) {
	l := bridge.NewLocal()
	ctx := context.Background()
	mod, err := l.Import(ctx, "tensorflow.keras.constraints")
	require.NoError(t, err)

	h, err := Create(ctx, l, mod, DefaultMaxNorm())
	require.NoError(t, err)
	assert.Equal(t, "MaxNorm", h.Class)

	v, err := l.GetAttr(ctx, h, "axis")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.GetNumberValue())
}
