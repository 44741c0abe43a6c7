package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Split partitions the frame into train and test sets by a shuffled row
// permutation. ratio is the test fraction (e.g. 0.2). The seed fixes the
// permutation so a run's split is reproducible.
func Split(frame *Frame, ratio float64, seed int64) (*Frame, *Frame, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("split ratio %v outside (0, 1)", ratio)
	}
	n := frame.NumRows()
	if n < 2 {
		return nil, nil, fmt.Errorf("cannot split %d rows", n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testSize := int(math.Round(float64(n) * ratio))
	if testSize < 1 {
		testSize = 1
	}
	if testSize >= n {
		testSize = n - 1
	}

	test := &Frame{Columns: append([]string(nil), frame.Columns...)}
	train := &Frame{Columns: append([]string(nil), frame.Columns...)}
	for i, idx := range perm {
		if i < testSize {
			test.Rows = append(test.Rows, frame.Rows[idx])
		} else {
			train.Rows = append(train.Rows, frame.Rows[idx])
		}
	}
	return train, test, nil
}
