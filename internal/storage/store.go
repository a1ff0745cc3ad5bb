package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/odecast/internal/dynamo"
)

// Store keeps experiment runs on disk, one directory per run:
// metadata.json, trajectory.csv, and for training runs loss.csv and
// weights.json.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	System     string             `json:"system"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Scaler     string             `json:"scaler,omitempty"`
	Window     int                `json:"window,omitempty"`
	Horizon    int                `json:"horizon,omitempty"`
	TrainFrac  float64            `json:"train_frac,omitempty"`
	Epochs     int                `json:"epochs,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// Save writes metadata and the sampled trajectory, assigning a run ID.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.System, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	if err := s.writeMeta(runDir, meta); err != nil {
		return "", err
	}

	if result != nil {
		if err := writeTrajectory(filepath.Join(runDir, "trajectory.csv"), result); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) writeMeta(runDir string, meta RunMetadata) error {
	f, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// UpdateMetrics rewrites a run's metadata with final metric values.
func (s *Store) UpdateMetrics(runID string, metrics map[string]float64) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	if meta.Metrics == nil {
		meta.Metrics = make(map[string]float64)
	}
	for k, v := range metrics {
		meta.Metrics[k] = v
	}
	return s.writeMeta(filepath.Join(s.baseDir, runID), meta)
}

func writeTrajectory(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if len(result.States) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range result.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// SaveLossHistory writes per-epoch train/val losses as loss.csv.
func (s *Store) SaveLossHistory(runID string, trainLoss, valLoss []float64) error {
	f, err := os.Create(filepath.Join(s.baseDir, runID, "loss.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"epoch", "train_loss", "val_loss"}); err != nil {
		return err
	}
	for i := range trainLoss {
		val := ""
		if i < len(valLoss) {
			val = strconv.FormatFloat(valLoss[i], 'f', 8, 64)
		}
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(trainLoss[i], 'f', 8, 64),
			val,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// LoadLossHistory reads loss.csv back into per-epoch slices.
func (s *Store) LoadLossHistory(runID string) (trainLoss, valLoss []float64, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "loss.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}

	for i, rec := range records {
		if i == 0 || len(rec) < 3 {
			continue
		}
		tv, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: bad loss row %d: %w", i, err)
		}
		trainLoss = append(trainLoss, tv)
		if rec[2] != "" {
			vv, err := strconv.ParseFloat(rec[2], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: bad loss row %d: %w", i, err)
			}
			valLoss = append(valLoss, vv)
		}
	}
	return trainLoss, valLoss, nil
}

func (s *Store) Load(runID string) (RunMetadata, error) {
	var meta RunMetadata

	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// LoadStates reads trajectory.csv back into rows and timestamps.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}

	var states [][]float64
	var times []float64

	for i, rec := range records {
		if i == 0 || len(rec) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: bad time at row %d: %w", i, err)
		}
		row := make([]float64, len(rec)-1)
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: bad value at row %d: %w", i, err)
			}
			row[j] = v
		}
		times = append(times, t)
		states = append(states, row)
	}

	return states, times, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}
