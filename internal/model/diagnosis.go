package model

// Diagnosis is the outcome of classifying a leaf photo. Confidence is the
// winning class probability in [0, 1].
type Diagnosis struct {
	Class      string
	Label      string
	Confidence float64
}
