package optimizer

import (
	"testing"
)

// TestExtractFloat32Param tests the extractFloat32Param helper function
func TestExtractFloat32Param(t *testing.T) {
	tests := []struct {
		name         string
		params       map[string]interface{}
		key          string
		defaultValue float32
		expected     float32
	}{
		{
			name:         "existing_float64_param",
			params:       map[string]interface{}{"learning_rate": float64(0.01)},
			key:          "learning_rate",
			defaultValue: 0.001,
			expected:     0.01,
		},
		{
			name:         "int_param",
			params:       map[string]interface{}{"momentum": 1},
			key:          "momentum",
			defaultValue: 0,
			expected:     1,
		},
		{
			name:         "missing_param",
			params:       map[string]interface{}{"beta_1": float64(0.9)},
			key:          "learning_rate",
			defaultValue: 0.001,
			expected:     0.001,
		},
		{
			name:         "wrong_type_param",
			params:       map[string]interface{}{"learning_rate": "0.01"},
			key:          "learning_rate",
			defaultValue: 0.001,
			expected:     0.001,
		},
		{
			name:         "zero_value",
			params:       map[string]interface{}{"learning_rate": float64(0.0)},
			key:          "learning_rate",
			defaultValue: 0.001,
			expected:     0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractFloat32Param(tt.params, tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("Expected %f, got %f", tt.expected, result)
			}
		})
	}
}

// TestExtractOptionalFloat32Param tests that None and missing keys stay unset
func TestExtractOptionalFloat32Param(t *testing.T) {
	params := map[string]interface{}{"clipnorm": 1.5, "clipvalue": nil}

	if v := extractOptionalFloat32Param(params, "clipnorm"); v == nil || *v != 1.5 {
		t.Errorf("Expected 1.5, got %v", v)
	}
	if v := extractOptionalFloat32Param(params, "clipvalue"); v != nil {
		t.Errorf("Expected nil for None, got %v", *v)
	}
	if v := extractOptionalFloat32Param(params, "weight_decay"); v != nil {
		t.Errorf("Expected nil for missing key, got %v", *v)
	}
}

// TestExtractBoolParam tests the extractBoolParam helper function
func TestExtractBoolParam(t *testing.T) {
	tests := []struct {
		name         string
		params       map[string]interface{}
		key          string
		defaultValue bool
		expected     bool
	}{
		{"existing_true", map[string]interface{}{"nesterov": true}, "nesterov", false, true},
		{"existing_false", map[string]interface{}{"amsgrad": false}, "amsgrad", true, false},
		{"missing_param", map[string]interface{}{}, "centered", true, true},
		{"wrong_type", map[string]interface{}{"centered": "true"}, "centered", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractBoolParam(tt.params, tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}
