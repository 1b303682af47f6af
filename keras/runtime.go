// Package keras opens a Keras runtime session and creates layers, losses,
// optimizers and regularizers in it from their typed records.
package keras

import (
	"context"
	"log"
	"sync"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/bridge"
	"github.com/tsawler/go-keras/layers"
	"github.com/tsawler/go-keras/losses"
	"github.com/tsawler/go-keras/marshal"
	"github.com/tsawler/go-keras/optimizer"
	"github.com/tsawler/go-keras/regularizers"
	"github.com/tsawler/go-keras/shape"
)

// Keras modules, relative to Config.ModuleRoot
const (
	ModuleLayers        = "layers"
	ModuleModels        = "models"
	ModuleLosses        = "losses"
	ModuleOptimizers    = "optimizers"
	ModuleRegularizers  = "regularizers"
	ModuleConstraints   = "constraints"
	ModuleUtils         = "utils"
	ModulePreprocessing = "preprocessing"
	ModuleBackend       = "backend"
)

// Runtime is a session with a Keras runtime. Module handles are imported on
// first use and cached. A Runtime is safe for concurrent use; calls into the
// session are serialized by the session itself.
type Runtime struct {
	cfg    Config
	sess   bridge.Session
	logger *log.Logger

	mu      sync.Mutex
	modules map[string]bridge.Handle
}

// Open starts a runtime for cfg. For the worker backend the process lives
// until Close, independently of ctx.
func Open(ctx context.Context, cfg Config) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var sess bridge.Session
	switch cfg.Backend {
	case BackendWorker:
		p, err := bridge.Spawn(context.WithoutCancel(ctx), cfg.Worker)
		if err != nil {
			return nil, errors.Wrap(err, "failed to start keras worker")
		}
		sess = p
	default:
		sess = bridge.NewLocal()
	}

	rt := NewRuntime(sess, cfg)
	if _, err := rt.Module(ctx, ""); err != nil {
		sess.Close()
		return nil, errors.Wrapf(err, "failed to import %s", cfg.ModuleRoot)
	}
	rt.logger.Printf("opened %s runtime on %s", cfg.Backend, cfg.ModuleRoot)
	return rt, nil
}

// NewRuntime wraps an existing session. The runtime takes ownership of sess.
func NewRuntime(sess bridge.Session, cfg Config) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runtime{
		cfg:     cfg,
		sess:    sess,
		logger:  logger,
		modules: make(map[string]bridge.Handle),
	}
}

// Config returns the runtime configuration
func (rt *Runtime) Config() Config {
	return rt.cfg
}

// Session returns the underlying session
func (rt *Runtime) Session() bridge.Session {
	return rt.sess
}

// Logger returns the runtime logger
func (rt *Runtime) Logger() *log.Logger {
	return rt.logger
}

// Close releases the session
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	rt.modules = make(map[string]bridge.Handle)
	rt.mu.Unlock()
	return rt.sess.Close()
}

// Module returns the handle of a module under the module root, importing it
// once. An empty name returns the root module.
func (rt *Runtime) Module(ctx context.Context, name string) (bridge.Handle, error) {
	path := rt.cfg.ModuleRoot
	if name != "" {
		path += "." + name
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if h, ok := rt.modules[path]; ok {
		return h, nil
	}
	h, err := rt.sess.Import(ctx, path)
	if err != nil {
		return bridge.Handle{}, errors.Wrapf(err, "failed to import %s", path)
	}
	rt.modules[path] = h
	return h, nil
}

// Layers returns the keras layers module
func (rt *Runtime) Layers(ctx context.Context) (bridge.Handle, error) {
	return rt.Module(ctx, ModuleLayers)
}

// Models returns the keras models module
func (rt *Runtime) Models(ctx context.Context) (bridge.Handle, error) {
	return rt.Module(ctx, ModuleModels)
}

// Losses returns the keras losses module
func (rt *Runtime) Losses(ctx context.Context) (bridge.Handle, error) {
	return rt.Module(ctx, ModuleLosses)
}

// Optimizers returns the keras optimizers module
func (rt *Runtime) Optimizers(ctx context.Context) (bridge.Handle, error) {
	return rt.Module(ctx, ModuleOptimizers)
}

// CreateLayer instantiates a layer record. The inner layer of a wrapper is
// created first and passed as a handle.
func (rt *Runtime) CreateLayer(ctx context.Context, l layers.Layer) (bridge.Handle, error) {
	return rt.createLayer(ctx, l, nil)
}

// CreateInputLayer instantiates the first layer of a model, declaring
// inputShape (without the batch dimension) unless the record declares its own.
func (rt *Runtime) CreateInputLayer(ctx context.Context, l layers.Layer, inputShape []int) (bridge.Handle, error) {
	return rt.createLayer(ctx, l, inputShape)
}

func (rt *Runtime) createLayer(ctx context.Context, l layers.Layer, inputShape []int) (bridge.Handle, error) {
	module, err := rt.Layers(ctx)
	if err != nil {
		return bridge.Handle{}, err
	}

	p := l.Params()
	if w, ok := l.(layers.Wrapper); ok && w.Inner() != nil {
		inner, err := rt.CreateLayer(ctx, w.Inner())
		if err != nil {
			return bridge.Handle{}, errors.Wrapf(err, "failed to create layer wrapped by %s", l.ClassName())
		}
		p.Set("layer", inner)
	}
	if len(inputShape) > 0 && len(l.DeclaredInputShape()) == 0 {
		p.Set("input_shape", shape.New(inputShape...))
	}
	if v, ok := p.Get("data_format"); ok && v == "" && rt.cfg.DataFormat != "" {
		p.Set("data_format", rt.cfg.DataFormat)
	}

	return marshal.Instantiate(ctx, rt.sess, module, l.ClassName(), p)
}

// ReadLayer reads the configuration of a layer living in the runtime back
// into a record
func (rt *Runtime) ReadLayer(ctx context.Context, h bridge.Handle) (layers.Layer, error) {
	v, err := rt.Call(ctx, h, "get_config", nil)
	if err != nil {
		return nil, err
	}
	config, ok := marshal.FromForeign(v).(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("get_config of %s returned %s", h, marshal.String(v))
	}
	return layers.Decode(h.Class, config)
}

// CreateLoss instantiates a loss record
func (rt *Runtime) CreateLoss(ctx context.Context, l losses.Loss) (bridge.Handle, error) {
	module, err := rt.Losses(ctx)
	if err != nil {
		return bridge.Handle{}, err
	}
	return losses.Create(ctx, rt.sess, module, l)
}

// CreateOptimizer instantiates an optimizer record
func (rt *Runtime) CreateOptimizer(ctx context.Context, o optimizer.Optimizer) (bridge.Handle, error) {
	module, err := rt.Optimizers(ctx)
	if err != nil {
		return bridge.Handle{}, err
	}
	return optimizer.Create(ctx, rt.sess, module, o)
}

// CreateRegularizer instantiates a regularizer or constraint record
func (rt *Runtime) CreateRegularizer(ctx context.Context, c marshal.Config) (bridge.Handle, error) {
	name := ModuleRegularizers
	if _, ok := c.(regularizers.Constraint); ok {
		name = ModuleConstraints
	}
	module, err := rt.Module(ctx, name)
	if err != nil {
		return bridge.Handle{}, err
	}
	return regularizers.Create(ctx, rt.sess, module, c)
}

// Call invokes a method on an object. p may be nil.
func (rt *Runtime) Call(ctx context.Context, target bridge.Handle, method string, p *marshal.Params) (*structpb.Value, error) {
	return marshal.InvokeMethod(ctx, rt.sess, target, method, p)
}

// CallFunction invokes a module level function, module being relative to the
// module root. p may be nil.
func (rt *Runtime) CallFunction(ctx context.Context, module, function string, p *marshal.Params) (*structpb.Value, error) {
	h, err := rt.Module(ctx, module)
	if err != nil {
		return nil, err
	}
	v, err := marshal.InvokeStaticMethod(ctx, rt.sess, h, function, p)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", module, function)
	}
	return v, nil
}

// GetAttr reads an attribute of an object
func (rt *Runtime) GetAttr(ctx context.Context, target bridge.Handle, name string) (*structpb.Value, error) {
	return rt.sess.GetAttr(ctx, target, name)
}

// SetAttr sets an attribute of an object
func (rt *Runtime) SetAttr(ctx context.Context, target bridge.Handle, name string, value interface{}) error {
	v, err := marshal.ToForeign(value)
	if err != nil {
		return err
	}
	return rt.sess.SetAttr(ctx, target, name, v)
}
