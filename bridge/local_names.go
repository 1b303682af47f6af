package bridge

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	snakeFirst  = regexp.MustCompile(`(.)([A-Z][a-z0-9]+)`)
	snakeSecond = regexp.MustCompile(`([a-z])([A-Z])`)
)

// snakeCase converts a Keras class name to the prefix Keras uses for
// automatic layer names: Conv2D -> conv2d, LeakyReLU -> leaky_re_lu.
func snakeCase(class string) string {
	s := snakeFirst.ReplaceAllString(class, "${1}_${2}")
	s = snakeSecond.ReplaceAllString(s, "${1}_${2}")
	s = strings.ToLower(s)
	if strings.HasPrefix(s, "_") {
		return "private" + s
	}
	return s
}

// uniqueName hands out dense, dense_1, dense_2, ... Input layers start at
// input_1 the way Keras numbers them.
func (l *Local) uniqueName(prefix string) string {
	n := l.names[prefix]
	l.names[prefix] = n + 1
	if prefix == "input" {
		return fmt.Sprintf("input_%d", n+1)
	}
	if n == 0 {
		return prefix
	}
	return fmt.Sprintf("%s_%d", prefix, n)
}

// defaultSignatures lists the leading positional parameters of the Keras
// callables the local runtime understands. Anything else must be called
// with keyword arguments only.
var defaultSignatures = map[string][]string{
	// layers
	"Dense":                         {"units"},
	"Conv1D":                        {"filters", "kernel_size"},
	"Conv2D":                        {"filters", "kernel_size"},
	"Conv3D":                        {"filters", "kernel_size"},
	"Conv2DTranspose":               {"filters", "kernel_size"},
	"MaxPooling1D":                  {"pool_size"},
	"MaxPooling2D":                  {"pool_size"},
	"AveragePooling1D":              {"pool_size"},
	"AveragePooling2D":              {"pool_size"},
	"GRU":                           {"units"},
	"LSTM":                          {"units"},
	"SimpleRNN":                     {"units"},
	"Dropout":                       {"rate"},
	"Activation":                    {"activation"},
	"Flatten":                       {"data_format"},
	"Embedding":                     {"input_dim", "output_dim"},
	"BatchNormalization":            {"axis"},
	"LeakyReLU":                     {"alpha"},
	"ReLU":                          {"max_value"},
	"Softmax":                       {"axis"},
	"ELU":                           {"alpha"},
	"PReLU":                         {"alpha_initializer"},
	"ThresholdedReLU":               {"theta"},
	"Bidirectional":                 {"layer"},
	"TimeDistributed":               {"layer"},
	"Reshape":                       {"target_shape"},
	"Concatenate":                   {"axis"},
	"Add":                           {},
	"Input":                         {"shape"},
	"InputLayer":                    {"input_shape"},
	"Sequential":                    {"layers"},
	"Model":                         {"inputs", "outputs"},
	"Functional":                    {"inputs", "outputs"},
	"BinaryCrossentropy":            {"from_logits"},
	"CategoricalCrossentropy":       {"from_logits"},
	"SparseCategoricalCrossentropy": {"from_logits"},
	"MeanSquaredError":              {"reduction"},
	"MeanAbsoluteError":             {"reduction"},
	"SGD":                           {"learning_rate"},
	"Adam":                          {"learning_rate"},
	"RMSprop":                       {"learning_rate"},
	"Adagrad":                       {"learning_rate"},
	"Adadelta":                      {"learning_rate"},
	"Nadam":                         {"learning_rate"},
	"L1":                            {"l1"},
	"L2":                            {"l2"},
	"L1L2":                          {"l1", "l2"},
	"MaxNorm":                       {"max_value"},
	"MinMaxNorm":                    {"min_value", "max_value"},
	"UnitNorm":                      {"axis"},
	"NonNeg":                        {},
	"TimeseriesGenerator":           {"data", "targets", "length"},
	"Tokenizer":                     {"num_words"},

	// methods and functions
	"add":             {"layer"},
	"add_loss":        {"losses"},
	"compile":         {"optimizer", "loss", "metrics"},
	"save_weights":    {"filepath"},
	"load_weights":    {"filepath"},
	"to_json":         {},
	"get_config":      {},
	"summary":         {},
	"model_from_json": {"json_string"},
	"__call__":        {"inputs"},
}
