package dataset

import (
	"fmt"
	"strconv"
)

// Textual target labels map to the binary encoding the classifier trains on.
const (
	TargetNeg = "neg"
	TargetPos = "pos"
)

// MapTarget encodes a target cell: neg → 0, pos → 1, anything else must
// already be numeric.
func MapTarget(cell string) (float64, error) {
	switch cell {
	case TargetNeg:
		return 0, nil
	case TargetPos:
		return 1, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("unmappable target value %q", cell)
	}
	return v, nil
}

// ReverseTarget decodes a binary label back to its textual form.
func ReverseTarget(label int) string {
	if label == 1 {
		return TargetPos
	}
	return TargetNeg
}
