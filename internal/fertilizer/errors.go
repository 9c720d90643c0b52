package fertilizer

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid nutrient requirement")

// InvalidInputError reports a nutrient amount that is negative, NaN or infinite.
type InvalidInputError struct {
	Nutrient string
	Value    float64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s=%v", ErrInvalidInput, e.Nutrient, e.Value)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
