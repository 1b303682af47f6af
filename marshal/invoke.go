package marshal

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/bridge"
)

// Args splits a parameter table into foreign call arguments. The first
// parameter is always passed positionally, even when it is nil. The remaining
// parameters become keyword arguments, skipping nil values and blank strings.
// An empty table produces a call without arguments, and a keyword only table
// produces no positional argument.
func Args(p *Params) ([]*structpb.Value, map[string]*structpb.Value, error) {
	keys := p.Keys()
	if len(keys) == 0 {
		return nil, nil, nil
	}
	if p.KeywordOnly() {
		kwargs, err := ForeignFields(p)
		if err != nil {
			return nil, nil, err
		}
		return nil, kwargs, nil
	}

	first, _ := p.Get(keys[0])
	positional, err := ToForeign(first)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parameter %s", keys[0])
	}

	kwargs := make(map[string]*structpb.Value, len(keys)-1)
	for _, k := range keys[1:] {
		v, _ := p.Get(k)
		if skippable(v) {
			continue
		}
		fv, err := ToForeign(v)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "parameter %s", k)
		}
		kwargs[k] = fv
	}
	return []*structpb.Value{positional}, kwargs, nil
}

// Instantiate constructs class from module with the given parameters and
// returns a handle to the new object.
func Instantiate(ctx context.Context, sess bridge.Session, module bridge.Handle, class string, p *Params) (bridge.Handle, error) {
	v, err := invoke(ctx, sess, module, class, p)
	if err != nil {
		return bridge.Handle{}, errors.Wrapf(err, "failed to create %s", class)
	}
	h, ok := bridge.AsHandle(v)
	if !ok {
		return bridge.Handle{}, errors.Errorf("creating %s did not return an object", class)
	}
	return h, nil
}

// InvokeMethod calls method on target
func InvokeMethod(ctx context.Context, sess bridge.Session, target bridge.Handle, method string, p *Params) (*structpb.Value, error) {
	v, err := invoke(ctx, sess, target, method, p)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", target.Class, method)
	}
	return v, nil
}

// InvokeStaticMethod calls a module level function such as
// losses.binary_crossentropy.
func InvokeStaticMethod(ctx context.Context, sess bridge.Session, module bridge.Handle, function string, p *Params) (*structpb.Value, error) {
	v, err := invoke(ctx, sess, module, function, p)
	if err != nil {
		return nil, errors.Wrapf(err, "%s()", function)
	}
	return v, nil
}

// invoke is shared by construction, method and function calls. Conversion
// errors are returned before anything reaches the runtime.
func invoke(ctx context.Context, sess bridge.Session, target bridge.Handle, name string, p *Params) (*structpb.Value, error) {
	args, kwargs, err := Args(p)
	if err != nil {
		return nil, err
	}
	return sess.Call(ctx, target, name, args, kwargs)
}
