package optimizer

import (
	"fmt"
)

// Decode rebuilds an optimizer record from a Keras class name and its
// config, as found in a compiled model's training config or an
// OptimizerState. Missing keys take the Keras defaults.
func Decode(className string, params map[string]interface{}) (Optimizer, error) {
	if params == nil {
		params = map[string]interface{}{}
	}

	switch className {
	case "SGD":
		d := DefaultSGDConfig()
		o := &SGD{SGDConfig: SGDConfig{
			LearningRate: extractFloat32Param(params, "learning_rate", d.LearningRate),
			Momentum:     extractFloat32Param(params, "momentum", d.Momentum),
			Nesterov:     extractBoolParam(params, "nesterov", d.Nesterov),
		}}
		o.decode(params)
		return o, nil
	case "Adam":
		d := DefaultAdamConfig()
		o := &Adam{AdamConfig: AdamConfig{
			LearningRate: extractFloat32Param(params, "learning_rate", d.LearningRate),
			Beta1:        extractFloat32Param(params, "beta_1", d.Beta1),
			Beta2:        extractFloat32Param(params, "beta_2", d.Beta2),
			Epsilon:      extractFloat32Param(params, "epsilon", d.Epsilon),
			AMSGrad:      extractBoolParam(params, "amsgrad", d.AMSGrad),
		}}
		o.decode(params)
		return o, nil
	case "RMSprop":
		d := DefaultRMSPropConfig()
		o := &RMSProp{RMSPropConfig: RMSPropConfig{
			LearningRate: extractFloat32Param(params, "learning_rate", d.LearningRate),
			Rho:          extractFloat32Param(params, "rho", d.Rho),
			Momentum:     extractFloat32Param(params, "momentum", d.Momentum),
			Epsilon:      extractFloat32Param(params, "epsilon", d.Epsilon),
			Centered:     extractBoolParam(params, "centered", d.Centered),
		}}
		o.decode(params)
		return o, nil
	case "Adagrad":
		d := DefaultAdaGradConfig()
		o := &AdaGrad{AdaGradConfig: AdaGradConfig{
			LearningRate:            extractFloat32Param(params, "learning_rate", d.LearningRate),
			InitialAccumulatorValue: extractFloat32Param(params, "initial_accumulator_value", d.InitialAccumulatorValue),
			Epsilon:                 extractFloat32Param(params, "epsilon", d.Epsilon),
		}}
		o.decode(params)
		return o, nil
	case "Adadelta":
		d := DefaultAdaDeltaConfig()
		o := &AdaDelta{AdaDeltaConfig: AdaDeltaConfig{
			LearningRate: extractFloat32Param(params, "learning_rate", d.LearningRate),
			Rho:          extractFloat32Param(params, "rho", d.Rho),
			Epsilon:      extractFloat32Param(params, "epsilon", d.Epsilon),
		}}
		o.decode(params)
		return o, nil
	case "Nadam":
		d := DefaultNadamConfig()
		o := &Nadam{NadamConfig: NadamConfig{
			LearningRate: extractFloat32Param(params, "learning_rate", d.LearningRate),
			Beta1:        extractFloat32Param(params, "beta_1", d.Beta1),
			Beta2:        extractFloat32Param(params, "beta_2", d.Beta2),
			Epsilon:      extractFloat32Param(params, "epsilon", d.Epsilon),
		}}
		o.decode(params)
		return o, nil
	}
	return nil, fmt.Errorf("unknown optimizer %q", className)
}

// extractFloat32Param safely extracts a float32 parameter from the state map
func extractFloat32Param(params map[string]interface{}, key string, defaultValue float32) float32 {
	switch val := params[key].(type) {
	case float64:
		return float32(val)
	case float32:
		return val
	case int:
		return float32(val)
	}
	return defaultValue
}

// extractOptionalFloat32Param returns nil when key is missing or None
func extractOptionalFloat32Param(params map[string]interface{}, key string) *float32 {
	switch params[key].(type) {
	case float64, float32, int:
		v := extractFloat32Param(params, key, 0)
		return &v
	}
	return nil
}

// extractBoolParam safely extracts a bool parameter from the state map
func extractBoolParam(params map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := params[key].(bool); ok {
		return val
	}
	return defaultValue
}
