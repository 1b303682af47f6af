package optimizer

import (
	"context"
	"reflect"
	"testing"

	"github.com/tsawler/go-keras/bridge"
)

func float32Ptr(v float32) *float32 { return &v }

// TestDefaultConfigs checks the defaults against the Keras signatures
func TestDefaultConfigs(t *testing.T) {
	if c := DefaultSGDConfig(); c.LearningRate != 0.01 || c.Momentum != 0 || c.Nesterov {
		t.Errorf("unexpected SGD defaults: %+v", c)
	}
	if c := DefaultAdamConfig(); c.LearningRate != 0.001 || c.Beta1 != 0.9 || c.Beta2 != 0.999 || c.Epsilon != 1e-7 {
		t.Errorf("unexpected Adam defaults: %+v", c)
	}
	if c := DefaultRMSPropConfig(); c.LearningRate != 0.001 || c.Rho != 0.9 || c.Centered {
		t.Errorf("unexpected RMSprop defaults: %+v", c)
	}
	if c := DefaultAdaGradConfig(); c.InitialAccumulatorValue != 0.1 {
		t.Errorf("unexpected Adagrad defaults: %+v", c)
	}
	if c := DefaultAdaDeltaConfig(); c.Rho != 0.95 {
		t.Errorf("unexpected Adadelta defaults: %+v", c)
	}
	if c := DefaultNadamConfig(); c.Beta2 != 0.999 {
		t.Errorf("unexpected Nadam defaults: %+v", c)
	}
}

func TestParamsOrder(t *testing.T) {
	o := NewAdam(DefaultAdamConfig())
	o.ClipNorm = float32Ptr(1)

	keys := o.Params().Keys()
	want := []string{"learning_rate", "beta_1", "beta_2", "epsilon", "amsgrad", "weight_decay", "clipnorm", "clipvalue"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("expected keys %v, got %v", want, keys)
	}
}

func TestStateRoundTrip(t *testing.T) {
	sgd := NewSGD(SGDConfig{LearningRate: 0.1, Momentum: 0.9, Nesterov: true})
	sgd.ClipValue = float32Ptr(0.5)
	adam := NewAdam(DefaultAdamConfig())
	adam.WeightDecay = float32Ptr(0.004)

	optimizers := []Optimizer{
		sgd,
		adam,
		NewRMSProp(RMSPropConfig{LearningRate: 0.01, Rho: 0.8, Momentum: 0.1, Epsilon: 1e-6, Centered: true}),
		NewAdaGrad(DefaultAdaGradConfig()),
		NewAdaDelta(DefaultAdaDeltaConfig()),
		NewNadam(DefaultNadamConfig()),
	}

	for _, o := range optimizers {
		t.Run(o.ClassName(), func(t *testing.T) {
			state := GetState(o)
			if state.Type != o.ClassName() {
				t.Fatalf("expected type %s, got %s", o.ClassName(), state.Type)
			}
			if _, ok := state.Parameters["clipnorm"]; ok {
				t.Error("unset clipnorm should not be stored")
			}

			restored, err := LoadState(state)
			if err != nil {
				t.Fatalf("LoadState failed: %v", err)
			}
			if !reflect.DeepEqual(o, restored) {
				t.Errorf("expected %+v, got %+v", o, restored)
			}
			if restored.LR() != o.LR() {
				t.Errorf("expected learning rate %f, got %f", o.LR(), restored.LR())
			}
		})
	}
}

func TestLoadStateErrors(t *testing.T) {
	if _, err := LoadState(nil); err == nil {
		t.Error("expected error for nil state")
	}
	if _, err := LoadState(&OptimizerState{Type: "LBFGS"}); err == nil {
		t.Error("expected error for unknown optimizer")
	}
}

func TestDecodeUsesKerasDefaults(t *testing.T) {
	o, err := Decode("RMSprop", nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(o, NewRMSProp(DefaultRMSPropConfig())) {
		t.Errorf("unexpected record: %+v", o)
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	sess := bridge.NewLocal()
	module, err := sess.Import(ctx, "tensorflow.keras.optimizers")
	if err != nil {
		t.Fatal(err)
	}

	h, err := Create(ctx, sess, module, NewSGD(SGDConfig{LearningRate: 0.5, Momentum: 0.9}))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if h.Class != "SGD" {
		t.Errorf("expected SGD handle, got %s", h)
	}

	lr, err := sess.GetAttr(ctx, h, "learning_rate")
	if err != nil {
		t.Fatal(err)
	}
	if lr.GetNumberValue() != 0.5 {
		t.Errorf("expected learning rate 0.5, got %v", lr.GetNumberValue())
	}
	if _, err := sess.GetAttr(ctx, h, "clipnorm"); err == nil {
		t.Error("unset clipnorm should not be sent")
	}
}
