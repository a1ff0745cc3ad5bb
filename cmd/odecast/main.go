package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/odecast/internal/analysis"
	"github.com/san-kum/odecast/internal/config"
	"github.com/san-kum/odecast/internal/dynamo"
	"github.com/san-kum/odecast/internal/experiment"
	"github.com/san-kum/odecast/internal/export"
	"github.com/san-kum/odecast/internal/forecast"
	"github.com/san-kum/odecast/internal/integrators"
	"github.com/san-kum/odecast/internal/optim"
	"github.com/san-kum/odecast/internal/storage"
	"github.com/san-kum/odecast/internal/train"
	"github.com/san-kum/odecast/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	duration   float64
	transient  float64
	noiseStd   float64
	seed       int64
	integrator string
	scaler     string
	windowLen  int
	horizon    int
	stride     int
	trainFrac  float64
	epochs     int
	batchSize  int
	lr         float64
	optimizer  string
	clipNorm   float64
	hiddenDim  int
	latentDim  int
	dynHidden  int
	live       bool
	steps      int
	startIdx   int
	xAxis      int
	yAxis      int
	outPath    string
	lyapunov   bool
	searchLRs  []float64
	searchDims []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "odecast",
		Short: "latent-ODE forecasting lab for chaotic systems",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".odecast", "data directory")

	simulateCmd := &cobra.Command{
		Use:   "simulate [system]",
		Short: "integrate a system and store the trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
	addSimFlags(simulateCmd)

	trainCmd := &cobra.Command{
		Use:   "train [system]",
		Short: "simulate, window, and fit a latent-ODE forecaster",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrain,
	}
	addSimFlags(trainCmd)
	addDatasetFlags(trainCmd)
	addModelFlags(trainCmd)
	trainCmd.Flags().BoolVar(&live, "live", false, "live training dashboard")
	trainCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	trainCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	forecastCmd := &cobra.Command{
		Use:   "forecast [run_id]",
		Short: "roll a trained model forward against the stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runForecast,
	}
	forecastCmd.Flags().IntVar(&steps, "steps", 40, "forecast steps")
	forecastCmd.Flags().IntVar(&startIdx, "start", -1, "forecast origin (default: series end minus steps)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored trajectory channels",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "save a phase portrait PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 2, "state index for y-axis")
	phaseCmd.Flags().StringVar(&outPath, "out", "phase.png", "output file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and chaos analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().BoolVar(&lyapunov, "lyapunov", false, "estimate the largest Lyapunov exponent")

	compareCmd := &cobra.Command{
		Use:   "compare [system] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same system",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	compareCmd.Flags().Float64Var(&duration, "time", 10.0, "duration")

	reportCmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "write an HTML report for a training run",
		Args:  cobra.ExactArgs(1),
		RunE:  reportRun,
	}
	reportCmd.Flags().StringVar(&outPath, "out", "report.html", "output file")
	reportCmd.Flags().IntVar(&steps, "steps", 40, "forecast steps")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run trajectory to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets for a system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for system: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search [system]",
		Short: "grid-search learning rate and latent size",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	addSimFlags(searchCmd)
	addDatasetFlags(searchCmd)
	searchCmd.Flags().IntVar(&epochs, "epochs", 10, "epochs per trial")
	searchCmd.Flags().Float64SliceVar(&searchLRs, "lrs", []float64{1e-2, 1e-3, 1e-4}, "learning rates to try")
	searchCmd.Flags().IntSliceVar(&searchDims, "latents", []int{4, 8, 16}, "latent sizes to try")

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list available systems, integrators, scalers and optimizers",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			fmt.Printf("systems:     %s\n", strings.Join(reg.ListSystems(), ", "))
			fmt.Printf("integrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
			fmt.Printf("scalers:     %s\n", strings.Join(reg.ListScalers(), ", "))
			fmt.Printf("optimizers:  %s\n", strings.Join(reg.ListOptimizers(), ", "))
			return nil
		},
	}

	rootCmd.AddCommand(simulateCmd, trainCmd, forecastCmd, listCmd, plotCmd, phaseCmd,
		analyzeCmd, compareCmd, reportCmd, exportCSVCmd, exportJSONCmd, presetsCmd,
		searchCmd, systemsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&transient, "transient", config.DefaultTransient, "transient to discard")
	cmd.Flags().Float64Var(&noiseStd, "noise", 0.0, "observation noise stddev")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
}

func addDatasetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scaler, "scaler", "minmax", "scaler (minmax, standard)")
	cmd.Flags().IntVar(&windowLen, "window", config.DefaultWindow, "encoder window length")
	cmd.Flags().IntVar(&horizon, "horizon", config.DefaultHorizon, "forecast horizon")
	cmd.Flags().IntVar(&stride, "stride", config.DefaultStride, "window stride")
	cmd.Flags().Float64Var(&trainFrac, "train-frac", config.DefaultTrainFrac, "training fraction")
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&hiddenDim, "hidden", 32, "GRU hidden size")
	cmd.Flags().IntVar(&latentDim, "latent", 8, "latent state size")
	cmd.Flags().IntVar(&dynHidden, "dyn-hidden", 32, "dynamics net hidden size")
	cmd.Flags().IntVar(&epochs, "epochs", config.DefaultEpochs, "training epochs")
	cmd.Flags().IntVar(&batchSize, "batch", config.DefaultBatch, "batch size")
	cmd.Flags().Float64Var(&lr, "lr", config.DefaultLR, "learning rate")
	cmd.Flags().StringVar(&optimizer, "optimizer", "adam", "optimizer (sgd, adam)")
	cmd.Flags().Float64Var(&clipNorm, "clip", config.DefaultClipNorm, "gradient clip norm")
}

// buildConfig resolves preset, config file, and CLI flags in that
// order; explicitly set flags always win.
func buildConfig(cmd *cobra.Command, system string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(system, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(system))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.System.Name = system

	flags := cmd.Flags()
	if flags.Changed("dt") || cfg.Simulation.Dt == 0 {
		cfg.Simulation.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Simulation.Duration = duration
	}
	if flags.Changed("transient") {
		cfg.Simulation.Transient = transient
	}
	if flags.Changed("noise") {
		cfg.Simulation.NoiseStd = noiseStd
	}
	if flags.Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Simulation.Integrator = integrator
	}
	if flags.Changed("scaler") {
		cfg.Dataset.Scaler = scaler
	}
	if flags.Changed("window") {
		cfg.Dataset.Window = windowLen
	}
	if flags.Changed("horizon") {
		cfg.Dataset.Horizon = horizon
	}
	if flags.Changed("stride") {
		cfg.Dataset.Stride = stride
	}
	if flags.Changed("train-frac") {
		cfg.Dataset.TrainFrac = trainFrac
	}
	if flags.Changed("hidden") {
		cfg.Model.HiddenDim = hiddenDim
	}
	if flags.Changed("latent") {
		cfg.Model.LatentDim = latentDim
	}
	if flags.Changed("dyn-hidden") {
		cfg.Model.DynHidden = dynHidden
	}
	if flags.Changed("epochs") {
		cfg.Training.Epochs = epochs
	}
	if flags.Changed("batch") {
		cfg.Training.BatchSize = batchSize
	}
	if flags.Changed("lr") {
		cfg.Training.LearningRate = lr
	}
	if flags.Changed("optimizer") {
		cfg.Training.Optimizer = optimizer
	}
	if flags.Changed("clip") {
		cfg.Training.ClipNorm = clipNorm
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("simulating %s...\n", cfg.System.Name)
	start := time.Now()

	e := experiment.New(cfg, nil)
	result, err := e.Simulate(context.Background())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Kind:       "simulation",
		System:     cfg.System.Name,
		Seed:       cfg.Simulation.Seed,
		Dt:         cfg.Simulation.Dt,
		Duration:   cfg.Simulation.Duration,
		Integrator: cfg.Simulation.Integrator,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.States))
	if len(result.Errors) > 0 {
		fmt.Printf("step errors: %d (first: %v)\n", len(result.Errors), result.Errors[0])
	}

	fmt.Println()
	fmt.Println(viz.PlotChannel(result.Series(), 0, cfg.System.Name+" x0"))
	return nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	e := experiment.New(cfg, nil)
	ctx := context.Background()

	var res *experiment.Result
	var runErr error

	if live {
		p := tea.NewProgram(viz.NewMonitor(cfg.System.Name, cfg.Training.Epochs))
		e.OnEpoch(func(pr train.Progress) { p.Send(viz.ProgressMsg(pr)) })

		done := make(chan struct{})
		go func() {
			res, runErr = e.Run(ctx)
			p.Send(viz.DoneMsg{Err: runErr})
			close(done)
		}()

		if _, err := p.Run(); err != nil {
			return err
		}
		<-done
	} else {
		e.OnEpoch(func(pr train.Progress) {
			if math.IsNaN(pr.ValLoss) {
				fmt.Printf("epoch %3d/%d  train=%.6f  grad=%.4f\n",
					pr.Epoch, cfg.Training.Epochs, pr.TrainLoss, pr.GradNorm)
				return
			}
			fmt.Printf("epoch %3d/%d  train=%.6f  val=%.6f  grad=%.4f\n",
				pr.Epoch, cfg.Training.Epochs, pr.TrainLoss, pr.ValLoss, pr.GradNorm)
		})

		fmt.Printf("training %s forecaster (%d epochs, %s)...\n",
			cfg.System.Name, cfg.Training.Epochs, cfg.Training.Optimizer)
		res, runErr = e.Run(ctx)
	}

	if runErr != nil {
		return runErr
	}

	meta := storage.RunMetadata{
		Kind:       "training",
		System:     cfg.System.Name,
		Seed:       cfg.Simulation.Seed,
		Dt:         cfg.Simulation.Dt,
		Duration:   cfg.Simulation.Duration,
		Integrator: cfg.Simulation.Integrator,
		Scaler:     cfg.Dataset.Scaler,
		Window:     cfg.Dataset.Window,
		Horizon:    cfg.Dataset.Horizon,
		TrainFrac:  cfg.Dataset.TrainFrac,
		Epochs:     cfg.Training.Epochs,
	}
	runID, err := st.Save(meta, res.Sim)
	if err != nil {
		return err
	}
	if err := st.SaveLossHistory(runID, res.History.TrainLoss, res.History.ValLoss); err != nil {
		return err
	}
	if err := st.SaveWeights(runID, res.Model); err != nil {
		return err
	}
	if res.Comparison != nil {
		if err := st.UpdateMetrics(runID, res.Comparison.Metrics); err != nil {
			return err
		}
	}

	fmt.Printf("\nrun id: %s\n", runID)
	fmt.Printf("train samples: %d, val samples: %d\n", res.TrainSet.Len(), res.ValSet.Len())

	if res.Comparison != nil {
		fmt.Println("\nheld-out forecast metrics:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for name, val := range res.Comparison.Metrics {
			fmt.Fprintf(w, "  %s\t%.6f\n", name, val)
		}
		w.Flush()
	}

	fmt.Println()
	fmt.Println(viz.PlotLoss(res.History.TrainLoss))
	if res.Comparison != nil {
		fmt.Println()
		fmt.Println(viz.PlotOverlay(res.Comparison.Predicted, res.Comparison.Truth, 0, "forecast vs truth (x0, scaled)"))
	}

	return nil
}

// loadScaledRun reconstructs the scaled series a training run saw by
// refitting the named scaler on the stored trajectory's training rows.
func loadScaledRun(st *storage.Store, runID string) (storage.RunMetadata, [][]float64, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return meta, nil, err
	}
	if meta.Kind != "training" {
		return meta, nil, fmt.Errorf("run %s is a %s run, need a training run", runID, meta.Kind)
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return meta, nil, err
	}
	if len(states) == 0 {
		return meta, nil, fmt.Errorf("run %s has no trajectory", runID)
	}

	reg := experiment.NewRegistry()
	sc, err := reg.GetScaler(meta.Scaler)
	if err != nil {
		return meta, nil, err
	}

	fitRows := int(float64(len(states)) * meta.TrainFrac)
	if fitRows < 2 {
		fitRows = len(states)
	}
	if err := sc.Fit(states[:fitRows]); err != nil {
		return meta, nil, err
	}
	scaled, err := sc.Transform(states)
	if err != nil {
		return meta, nil, err
	}

	return meta, scaled, nil
}

func runForecast(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, scaled, err := loadScaledRun(st, runID)
	if err != nil {
		return err
	}

	model, err := st.LoadWeights(runID)
	if err != nil {
		return err
	}

	origin := startIdx
	if origin < 0 {
		origin = len(scaled) - steps
	}

	cmp, err := forecast.Compare(model, scaled, meta.Window, origin, steps, meta.Horizon, meta.Dt)
	if err != nil {
		return err
	}

	fmt.Printf("forecast: %s\n", meta.ID)
	fmt.Printf("system: %s, origin: %d, steps: %d\n\n", meta.System, origin, steps)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for name, val := range cmp.Metrics {
		fmt.Fprintf(w, "%s\t%.6f\n", name, val)
	}
	w.Flush()

	dim := len(cmp.Predicted[0])
	for ch := 0; ch < dim; ch++ {
		fmt.Println()
		fmt.Println(viz.PlotOverlay(cmp.Predicted, cmp.Truth, ch, fmt.Sprintf("x%d forecast vs truth (scaled)", ch)))
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSYSTEM\tTIME\tDURATION\tDT\tINTEG\tRMSE")

	for _, run := range runs {
		rmse := "-"
		if v, ok := run.Metrics["rmse"]; ok {
			rmse = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			rmse,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("system: %s\n", meta.System)
	fmt.Printf("samples: %d\n\n", len(states))

	fmt.Println(viz.PlotSeries(states, meta.System))
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if err := export.SavePhasePNG(outPath, states, xAxis, yAxis); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 || len(states[0]) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("system: %s\n\n", meta.System)

	data := make([]float64, len(states))
	for i := range states {
		data[i] = states[i][0]
	}

	ps := analysis.PowerSpectrum(analysis.PadPow2(data))
	plotData := ps[:len(ps)/4]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (x0)"),
	)
	fmt.Println(graph)
	fmt.Println()

	maxPower, maxIdx := 0.0, 0
	for i := 1; i < len(plotData); i++ {
		if plotData[i] > maxPower {
			maxPower = plotData[i]
			maxIdx = i
		}
	}
	freq := float64(maxIdx) / meta.Duration
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	if lyapunov {
		reg := experiment.NewRegistry()
		dyn, err := reg.GetSystem(meta.System)
		if err != nil {
			return err
		}
		x0 := dynamo.State(states[0]).Clone()
		lambda := analysis.LyapunovExponent(dyn, integrators.NewRK4(), x0, meta.Dt, 40.0, 1e-8)
		fmt.Printf("largest lyapunov exponent: %.4f\n", lambda)
		if lambda > 0 {
			fmt.Printf("predictability horizon: ~%.1f time units\n", 1.0/lambda)
		}
	}

	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	system := args[0]
	names := args[1:]

	reg := experiment.NewRegistry()

	// High-accuracy reference trajectory.
	ref, err := simulateWith(reg, system, "rk45", dt/10)
	if err != nil {
		return err
	}
	refFinal := ref.States[len(ref.States)-1]

	fmt.Printf("comparing integrators for %s (dt=%.4f, duration=%.1fs)\n\n", system, dt, duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tFINAL_X0\tREF_ERROR\tTIME")

	for _, name := range names {
		start := time.Now()
		result, err := simulateWith(reg, system, name, dt)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\n", name, err)
			continue
		}

		final := result.States[len(result.States)-1]
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%v\n",
			name, final[0], final.Sub(refFinal).Norm(), elapsed)
	}

	return w.Flush()
}

func simulateWith(reg *experiment.Registry, system, integName string, stepSize float64) (*dynamo.Result, error) {
	cfg := config.DefaultConfig()
	cfg.System.Name = system
	cfg.Simulation.Integrator = integName
	cfg.Simulation.Dt = stepSize
	cfg.Simulation.Duration = duration
	cfg.Simulation.Transient = 0

	return experiment.New(cfg, reg).Simulate(context.Background())
}

func reportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, scaled, err := loadScaledRun(st, runID)
	if err != nil {
		return err
	}

	model, err := st.LoadWeights(runID)
	if err != nil {
		return err
	}

	origin := len(scaled) - steps
	cmp, err := forecast.Compare(model, scaled, meta.Window, origin, steps, meta.Horizon, meta.Dt)
	if err != nil {
		return err
	}

	trainLoss, valLoss, err := st.LoadLossHistory(runID)
	if err != nil {
		return err
	}

	r := &export.Report{
		Title:      fmt.Sprintf("%s forecast report", meta.System),
		System:     meta.System,
		Comparison: cmp,
		TrainLoss:  trainLoss,
		ValLoss:    valLoss,
	}
	if err := export.WriteHTMLFile(outPath, r); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}
	return export.WriteSeriesCSV(os.Stdout, times, states)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		meta, err := st.Load(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}
	return export.WriteSeriesJSON(os.Stdout, times, states)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	cfg.Training.Epochs = epochs

	lrVals := searchLRs
	latentVals := make([]float64, len(searchDims))
	for i, d := range searchDims {
		latentVals[i] = float64(d)
	}

	gs := optim.NewGridSearch([]string{"lr", "latent"}, [][]float64{lrVals, latentVals})

	trial := 0
	total := len(lrVals) * len(latentVals)

	obj := func(ctx context.Context, params map[string]float64) (float64, error) {
		trial++
		c := *cfg
		c.Training.LearningRate = params["lr"]
		c.Model.LatentDim = int(params["latent"])

		res, err := experiment.New(&c, nil).Run(ctx)
		if err != nil {
			fmt.Printf("trial %d/%d  lr=%.0e latent=%d  failed: %v\n",
				trial, total, params["lr"], int(params["latent"]), err)
			return 0, err
		}

		score := res.History.ValLoss[len(res.History.ValLoss)-1]
		if math.IsNaN(score) {
			score = res.History.TrainLoss[len(res.History.TrainLoss)-1]
		}
		fmt.Printf("trial %d/%d  lr=%.0e latent=%d  loss=%.6f\n",
			trial, total, params["lr"], int(params["latent"]), score)
		return score, nil
	}

	fmt.Printf("searching %d combinations (%d epochs each)...\n\n", total, epochs)
	best, score, err := gs.Search(context.Background(), obj)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("all trials failed")
	}

	fmt.Printf("\nbest: lr=%.0e latent=%d (loss=%.6f)\n", best["lr"], int(best["latent"]), score)
	return nil
}
