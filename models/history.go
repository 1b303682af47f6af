package models

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tsawler/go-keras/bridge"
)

// History holds the per-epoch logs of a training run, as found in
// keras.callbacks.History.history
type History struct {
	Epochs  []int
	Metrics map[string][]float64
}

// History decodes the value returned by Fit. A History object is read
// through its history attribute; a plain logs dictionary is accepted as is.
func (m *Model) History(ctx context.Context, fit *structpb.Value) (*History, error) {
	h, ok := bridge.AsHandle(fit)
	if !ok {
		return HistoryFromValue(fit)
	}

	logs, err := m.rt.GetAttr(ctx, h, "history")
	if err != nil {
		return nil, err
	}
	hist, err := HistoryFromValue(logs)
	if err != nil {
		return nil, err
	}
	if epochs, err := m.rt.GetAttr(ctx, h, "epoch"); err == nil {
		hist.Epochs = hist.Epochs[:0]
		for _, e := range epochs.GetListValue().GetValues() {
			hist.Epochs = append(hist.Epochs, int(e.GetNumberValue()))
		}
	}
	return hist, nil
}

// HistoryFromValue decodes a {metric: [value per epoch]} dictionary.
// Epochs are numbered from 0.
func HistoryFromValue(v *structpb.Value) (*History, error) {
	logs := v.GetStructValue()
	if logs == nil {
		return nil, errors.New("training history is not a dictionary")
	}

	h := &History{Metrics: make(map[string][]float64, len(logs.Fields))}
	epochs := 0
	for name, values := range logs.Fields {
		list := values.GetListValue()
		if list == nil {
			return nil, errors.Errorf("history of %s is not a list", name)
		}
		series := make([]float64, len(list.Values))
		for i, x := range list.Values {
			series[i] = x.GetNumberValue()
		}
		h.Metrics[name] = series
		if len(series) > epochs {
			epochs = len(series)
		}
	}
	for i := 0; i < epochs; i++ {
		h.Epochs = append(h.Epochs, i)
	}
	return h, nil
}

// Names returns the recorded metric names, sorted
func (h *History) Names() []string {
	names := make([]string, 0, len(h.Metrics))
	for k := range h.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Last returns the final value of a metric
func (h *History) Last(metric string) (float64, bool) {
	series := h.Metrics[metric]
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// Best returns the best value of a metric and its epoch index. Losses and
// errors are minimised, everything else maximised.
func (h *History) Best(metric string) (float64, int, bool) {
	series := h.Metrics[metric]
	if len(series) == 0 {
		return 0, -1, false
	}
	minimise := isLoss(metric)
	best, at := series[0], 0
	for i, x := range series[1:] {
		if (minimise && x < best) || (!minimise && x > best) {
			best, at = x, i+1
		}
	}
	return best, at, true
}

func isLoss(metric string) bool {
	return strings.Contains(metric, "loss") || strings.Contains(metric, "error")
}

// String renders one line per epoch. Accuracies are shown as percentages.
func (h *History) String() string {
	var b strings.Builder
	names := h.Names()
	for i := range h.Epochs {
		fmt.Fprintf(&b, "Epoch %d/%d", i+1, len(h.Epochs))
		for _, name := range names {
			series := h.Metrics[name]
			if i >= len(series) {
				continue
			}
			if strings.Contains(name, "acc") {
				fmt.Fprintf(&b, ", %s=%.2f%%", name, series[i]*100)
			} else {
				fmt.Fprintf(&b, ", %s=%.3f", name, series[i])
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
