package ml

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// JoinMatrix appends y as the last column of X, giving the persisted layout
// consumed by training: features first, label last.
func JoinMatrix(x [][]float64, y []float64) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("join matrix: empty feature set")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("join matrix: %d rows vs %d labels", len(x), len(y))
	}
	rows, cols := len(x), len(x[0])+1
	m := mat.NewDense(rows, cols, nil)
	for i, row := range x {
		for j, v := range row {
			m.Set(i, j, v)
		}
		m.Set(i, cols-1, y[i])
	}
	return m, nil
}

// SplitMatrix separates a persisted matrix back into features (all but last
// column) and labels (last column).
func SplitMatrix(m *mat.Dense) ([][]float64, []float64) {
	rows, cols := m.Dims()
	x := make([][]float64, rows)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols-1)
		for j := 0; j < cols-1; j++ {
			row[j] = m.At(i, j)
		}
		x[i] = row
		y[i] = m.At(i, cols-1)
	}
	return x, y
}

// SaveMatrix writes the matrix in gonum's binary encoding, creating parent
// directories as needed.
func SaveMatrix(m *mat.Dense, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matrix file: %w", err)
	}
	defer f.Close()
	if _, err := m.MarshalBinaryTo(f); err != nil {
		return fmt.Errorf("write matrix %s: %w", path, err)
	}
	return nil
}

// LoadMatrix reads a matrix written by SaveMatrix.
func LoadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer f.Close()
	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(f); err != nil {
		return nil, fmt.Errorf("read matrix %s: %w", path, err)
	}
	return &m, nil
}

// SaveGob persists a fitted object (preprocessor, model bundle) with gob.
func SaveGob(path string, obj any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(obj); err != nil {
		return fmt.Errorf("encode object %s: %w", path, err)
	}
	return nil
}

// LoadGob reads an object written by SaveGob.
func LoadGob[T any](path string) (*T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open object file: %w", err)
	}
	defer f.Close()
	var obj T
	if err := gob.NewDecoder(f).Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode object %s: %w", path, err)
	}
	return &obj, nil
}
