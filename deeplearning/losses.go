package deeplearning

import "fmt"

// Reduce is how per sample losses are aggregated
type Reduce int

const (
	// No keeps one loss per sample
	No Reduce = iota
	Mean
	Sum
)

func (r Reduce) String() string {
	switch r {
	case No:
		return "No"
	case Mean:
		return "Mean"
	case Sum:
		return "Sum"
	}
	return fmt.Sprintf("Reduce(%d)", int(r))
}

// Loss is any loss descriptor
type Loss interface {
	ReduceMode() Reduce
	loss()
}

// L1 is the mean absolute error
type L1 struct{ Reduce Reduce }

// MeanSquareError is the mean squared error
type MeanSquareError struct{ Reduce Reduce }

// BinaryCrossEntropy expects probabilities
type BinaryCrossEntropy struct{ Reduce Reduce }

// BCEWithSigmoid is binary cross entropy on logits
type BCEWithSigmoid struct{ Reduce Reduce }

// CrossEntropy is categorical cross entropy on logits
type CrossEntropy struct{ Reduce Reduce }

// NegativeLogLikelihood is categorical cross entropy on probabilities
type NegativeLogLikelihood struct{ Reduce Reduce }

func (l *L1) ReduceMode() Reduce                    { return l.Reduce }
func (l *MeanSquareError) ReduceMode() Reduce       { return l.Reduce }
func (l *BinaryCrossEntropy) ReduceMode() Reduce    { return l.Reduce }
func (l *BCEWithSigmoid) ReduceMode() Reduce        { return l.Reduce }
func (l *CrossEntropy) ReduceMode() Reduce          { return l.Reduce }
func (l *NegativeLogLikelihood) ReduceMode() Reduce { return l.Reduce }

func (*L1) loss()                    {}
func (*MeanSquareError) loss()       {}
func (*BinaryCrossEntropy) loss()    {}
func (*BCEWithSigmoid) loss()        {}
func (*CrossEntropy) loss()          {}
func (*NegativeLogLikelihood) loss() {}
