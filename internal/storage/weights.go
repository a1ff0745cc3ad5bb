package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odecast/internal/node"
)

type weightsFile struct {
	Config node.Config           `json:"config"`
	Params map[string]weightBlob `json:"params"`
}

type weightBlob struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// SaveWeights serializes a trained model's parameters into the run
// directory as weights.json, keyed by parameter name.
func (s *Store) SaveWeights(runID string, model *node.LatentODE) error {
	wf := weightsFile{
		Config: model.Config(),
		Params: make(map[string]weightBlob),
	}

	for _, p := range model.Params() {
		rows, cols := p.W.Dims()
		data := make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				data = append(data, p.W.At(i, j))
			}
		}
		wf.Params[p.Name] = weightBlob{Rows: rows, Cols: cols, Data: data}
	}

	f, err := os.Create(filepath.Join(s.baseDir, runID, "weights.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	return enc.Encode(wf)
}

// LoadWeights reconstructs a model from a run's weights.json.
func (s *Store) LoadWeights(runID string) (*node.LatentODE, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "weights.json"))
	if err != nil {
		return nil, err
	}

	var wf weightsFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, err
	}

	model, err := node.New(wf.Config)
	if err != nil {
		return nil, err
	}

	for _, p := range model.Params() {
		blob, ok := wf.Params[p.Name]
		if !ok {
			return nil, fmt.Errorf("storage: weights.json missing parameter %q", p.Name)
		}
		rows, cols := p.W.Dims()
		if blob.Rows != rows || blob.Cols != cols {
			return nil, fmt.Errorf("storage: parameter %q has shape %dx%d, expected %dx%d",
				p.Name, blob.Rows, blob.Cols, rows, cols)
		}
		if len(blob.Data) != rows*cols {
			return nil, fmt.Errorf("storage: parameter %q has %d values, expected %d",
				p.Name, len(blob.Data), rows*cols)
		}
		p.W.Copy(mat.NewDense(rows, cols, blob.Data))
	}

	return model, nil
}
