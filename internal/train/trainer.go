package train

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/odecast/internal/dataset"
	"github.com/san-kum/odecast/internal/nn"
	"github.com/san-kum/odecast/internal/node"
)

// ErrNoTrainingData indicates an empty training set.
var ErrNoTrainingData = errors.New("train: empty training set")

type Config struct {
	Epochs    int
	BatchSize int
	ClipNorm  float64
	Seed      int64
	Dt        float64
}

func DefaultConfig() Config {
	return Config{
		Epochs:    60,
		BatchSize: 32,
		ClipNorm:  5.0,
		Seed:      42,
		Dt:        0.01,
	}
}

// Progress reports one finished epoch. ValLoss is NaN when no
// validation set was supplied.
type Progress struct {
	Epoch     int
	TrainLoss float64
	ValLoss   float64
	GradNorm  float64
}

// History collects per-epoch losses for export and plotting.
type History struct {
	TrainLoss []float64
	ValLoss   []float64
}

// Trainer fits a LatentODE to windowed samples with mini-batch
// gradient descent. Per-sample gradients are summed, averaged over the
// batch, clipped by global norm, then applied by the optimizer, so
// memory stays bounded by one sample's forward cache regardless of
// dataset size.
type Trainer struct {
	cfg       Config
	opt       Optimizer
	observers []func(Progress)
}

func New(cfg Config, opt Optimizer) *Trainer {
	return &Trainer{cfg: cfg, opt: opt}
}

// OnEpoch registers a progress callback invoked after every epoch.
func (t *Trainer) OnEpoch(fn func(Progress)) { t.observers = append(t.observers, fn) }

func (t *Trainer) validate(model *node.LatentODE, set *dataset.Set) error {
	if set == nil || set.Len() == 0 {
		return ErrNoTrainingData
	}
	if set.Dim != model.Config().ObsDim {
		return fmt.Errorf("train: dataset dim %d does not match model obs dim %d",
			set.Dim, model.Config().ObsDim)
	}
	if t.cfg.Epochs <= 0 {
		return fmt.Errorf("train: epochs must be positive, got %d", t.cfg.Epochs)
	}
	if t.cfg.BatchSize <= 0 {
		return fmt.Errorf("train: batch size must be positive, got %d", t.cfg.BatchSize)
	}
	if t.cfg.Dt <= 0 {
		return fmt.Errorf("train: dt must be positive, got %f", t.cfg.Dt)
	}
	return nil
}

// Fit trains the model in place and returns the loss history. A
// canceled context stops cleanly after the current batch; the history
// up to that point is returned with the context error.
func (t *Trainer) Fit(ctx context.Context, model *node.LatentODE, trainSet, valSet *dataset.Set) (*History, error) {
	if err := t.validate(model, trainSet); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	history := &History{}
	modules := model.Modules()
	params := model.Params()

	indices := make([]int, trainSet.Len())
	for i := range indices {
		indices[i] = i
	}

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		epochLoss := 0.0
		lastGradNorm := 0.0

		for start := 0; start < len(indices); start += t.cfg.BatchSize {
			select {
			case <-ctx.Done():
				return history, ctx.Err()
			default:
			}

			end := start + t.cfg.BatchSize
			if end > len(indices) {
				end = len(indices)
			}
			batch := indices[start:end]

			nn.ZeroGrads(modules...)

			for _, idx := range batch {
				s := trainSet.Samples[idx]
				loss, err := model.LossAndGrad(s.Window, s.Target, t.cfg.Dt)
				if err != nil {
					return history, fmt.Errorf("train: sample %d: %w", idx, err)
				}
				epochLoss += loss
			}

			nn.ScaleGrads(float64(len(batch)), modules...)
			nn.ClipGrads(t.cfg.ClipNorm, modules...)
			lastGradNorm = nn.GradNorm(modules...)

			t.opt.Step(params)
		}

		trainLoss := epochLoss / float64(trainSet.Len())
		valLoss, err := Evaluate(model, valSet, t.cfg.Dt)
		if err != nil && !errors.Is(err, ErrNoTrainingData) {
			return history, err
		}

		history.TrainLoss = append(history.TrainLoss, trainLoss)
		history.ValLoss = append(history.ValLoss, valLoss)

		p := Progress{Epoch: epoch + 1, TrainLoss: trainLoss, ValLoss: valLoss, GradNorm: lastGradNorm}
		for _, fn := range t.observers {
			fn(p)
		}
	}

	return history, nil
}

// Evaluate returns the mean loss over a set without updating weights.
// An empty set yields NaN and ErrNoTrainingData.
func Evaluate(model *node.LatentODE, set *dataset.Set, dt float64) (float64, error) {
	if set == nil || set.Len() == 0 {
		return math.NaN(), ErrNoTrainingData
	}

	total := 0.0
	for i := range set.Samples {
		s := set.Samples[i]
		loss, err := model.Loss(s.Window, s.Target, dt)
		if err != nil {
			return math.NaN(), err
		}
		total += loss
	}
	return total / float64(set.Len()), nil
}
