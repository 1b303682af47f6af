package keras

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/losses"
	"github.com/tsawler/go-keras/marshal"
	"github.com/tsawler/go-keras/optimizer"
	"github.com/tsawler/go-keras/regularizers"
	"github.com/tsawler/go-keras/shape"
)

func openLocal(t *testing.T, cfg Config) *Runtime {
	t.Helper()
	var buf bytes.Buffer
	cfg.Logger = log.New(&buf, "", 0)
	rt, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	assert.Contains(t, buf.String(), "opened local runtime")
	return rt
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Backend = "grpc" }, true},
		{"worker without command", func(c *Config) { c.Backend = BackendWorker }, true},
		{"worker", func(c *Config) { c.Backend = BackendWorker; c.Worker.Command = "python3" }, false},
		{"empty module root", func(c *Config) { c.ModuleRoot = " " }, true},
		{"channels first", func(c *Config) { c.DataFormat = layers.ChannelsFirst }, false},
		{"bad data format", func(c *Config) { c.DataFormat = "NCHW" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvBackend, BackendWorker)
	t.Setenv(EnvModuleRoot, "keras")
	t.Setenv(EnvDataFormat, layers.ChannelsLast)
	t.Setenv(EnvWorker, "python3 -m kerasworker --quiet")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendWorker, cfg.Backend)
	assert.Equal(t, "keras", cfg.ModuleRoot)
	assert.Equal(t, layers.ChannelsLast, cfg.DataFormat)
	assert.Equal(t, "python3", cfg.Worker.Command)
	assert.Equal(t, []string{"-m", "kerasworker", "--quiet"}, cfg.Worker.Args)

	t.Setenv(EnvBackend, "carrier-pigeon")
	_, err = ConfigFromEnv()
	assert.Error(t, err)
}

func TestOpenWorkerFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendWorker
	cfg.Worker.Command = "/nonexistent/keras-worker"
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestModuleIsCached(t *testing.T) {
	rt := openLocal(t, DefaultConfig())
	ctx := context.Background()

	a, err := rt.Layers(ctx)
	require.NoError(t, err)
	b, err := rt.Module(ctx, ModuleLayers)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	local := rt.Session().(*bridge.Local)
	before := local.Len()
	_, err = rt.Layers(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, local.Len())
}

func TestCreateAndReadLayer(t *testing.T) {
	rt := openLocal(t, DefaultConfig())
	ctx := context.Background()

	dense := layers.NewDense(4, "relu")
	dense.KernelRegularizer = regularizers.L2{L2: 0.01}
	h, err := rt.CreateLayer(ctx, dense)
	require.NoError(t, err)
	assert.Equal(t, "Dense", h.Class)

	back, err := rt.ReadLayer(ctx, h)
	require.NoError(t, err)
	got, ok := back.(*layers.Dense)
	require.True(t, ok)
	assert.Equal(t, "dense", got.Name)
	assert.Equal(t, 4, got.Units)
	assert.Equal(t, "relu", got.Activation)
	assert.Equal(t, regularizers.L2{L2: 0.01}, got.KernelRegularizer)
}

func TestCreateWrapperCreatesInnerFirst(t *testing.T) {
	rt := openLocal(t, DefaultConfig())
	ctx := context.Background()

	gru := layers.NewGRU(8)
	gru.Name = "encoder"
	h, err := rt.CreateLayer(ctx, &layers.Bidirectional{Layer: gru, MergeMode: "sum"})
	require.NoError(t, err)

	inner, err := rt.GetAttr(ctx, h, "layer")
	require.NoError(t, err)
	innerHandle, ok := bridge.AsHandle(inner)
	require.True(t, ok)
	assert.Equal(t, "GRU", innerHandle.Class)

	back, err := rt.ReadLayer(ctx, h)
	require.NoError(t, err)
	bi := back.(*layers.Bidirectional)
	assert.Equal(t, "sum", bi.MergeMode)
	assert.Equal(t, "encoder", bi.Layer.LayerName())
	assert.Equal(t, 8, bi.Layer.(*layers.GRU).Units)
}

func TestCreateLayerAppliesDataFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataFormat = layers.ChannelsFirst
	rt := openLocal(t, cfg)
	ctx := context.Background()

	h, err := rt.CreateLayer(ctx, layers.NewConv2D(8, shape.Tuple2{Item1: 3, Item2: 3}))
	require.NoError(t, err)
	v, err := rt.GetAttr(ctx, h, "data_format")
	require.NoError(t, err)
	assert.Equal(t, layers.ChannelsFirst, v.GetStringValue())

	explicit := layers.NewMaxPooling2D(shape.Tuple2{Item1: 2, Item2: 2})
	explicit.DataFormat = layers.ChannelsLast
	h, err = rt.CreateLayer(ctx, explicit)
	require.NoError(t, err)
	v, err = rt.GetAttr(ctx, h, "data_format")
	require.NoError(t, err)
	assert.Equal(t, layers.ChannelsLast, v.GetStringValue())
}

func TestCreateLossOptimizerRegularizer(t *testing.T) {
	rt := openLocal(t, DefaultConfig())
	ctx := context.Background()

	h, err := rt.CreateLoss(ctx, losses.NewMeanSquaredError(""))
	require.NoError(t, err)
	assert.Equal(t, "MeanSquaredError", h.Class)

	h, err = rt.CreateOptimizer(ctx, optimizer.NewAdam(optimizer.DefaultAdamConfig()))
	require.NoError(t, err)
	assert.Equal(t, "Adam", h.Class)

	h, err = rt.CreateRegularizer(ctx, regularizers.DefaultL1L2())
	require.NoError(t, err)
	assert.Equal(t, "L1L2", h.Class)

	h, err = rt.CreateRegularizer(ctx, regularizers.NonNeg{})
	require.NoError(t, err)
	assert.Equal(t, "NonNeg", h.Class)
}

func TestCallAndAttributes(t *testing.T) {
	rt := openLocal(t, DefaultConfig())
	ctx := context.Background()

	h, err := rt.CreateLayer(ctx, &layers.Dropout{Rate: 0.5})
	require.NoError(t, err)

	require.NoError(t, rt.SetAttr(ctx, h, "trainable", false))
	v, err := rt.GetAttr(ctx, h, "trainable")
	require.NoError(t, err)
	assert.False(t, v.GetBoolValue())

	err = rt.SetAttr(ctx, h, "callback", func() {})
	assert.True(t, errors.Is(err, marshal.ErrUnsupportedType))

	_, err = rt.Call(ctx, h, "compute_output_shape", marshal.NewParams().Set("input_shape", shape.New(4)))
	assert.True(t, errors.Is(err, bridge.ErrNotSupported))
	assert.Equal(t, 1, strings.Count(err.Error(), "Dropout.compute_output_shape"))

	_, err = rt.CallFunction(ctx, ModuleUtils, "to_categorical", marshal.NewParams().Set("y", []int{0, 1}))
	assert.True(t, errors.Is(err, bridge.ErrNotSupported))
}

func TestClose(t *testing.T) {
	rt, err := Open(context.Background(), DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	_, err = rt.Layers(context.Background())
	assert.True(t, errors.Is(err, bridge.ErrClosed))
}
