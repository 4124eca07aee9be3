package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/attsim/internal/analysis"
	"github.com/san-kum/attsim/internal/config"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/logging"
	"github.com/san-kum/attsim/internal/metrics"
	"github.com/san-kum/attsim/internal/observability"
	"github.com/san-kum/attsim/internal/optim"
	"github.com/san-kum/attsim/internal/scenario"
	"github.com/san-kum/attsim/internal/sim"
	"github.com/san-kum/attsim/internal/storage"
	"github.com/san-kum/attsim/internal/viz"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	preset     string
	dt         float64
	duration   float64
	integrator string
	speed      float64
	outFile    string
	svgFile    string
	// tune
	param   string
	minVal  float64
	maxVal  float64
	steps   int
	workers int
	trials  int
	spread  float64
	rateSpr float64
	seed    int64
	band    float64
	grid    []string
	goal    string
	// analyze
	phaseAxis string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "attsim",
		Short:         "spacecraft attitude control simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("data", ".attsim", "data directory")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text or json)")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address while running")
	flags.String("trace", "", "export run traces (stdout or otlp)")
	flags.String("trace-endpoint", "", "otlp collector endpoint")
	for _, name := range []string{"data", "log-level", "log-format", "metrics-addr", "trace", "trace-endpoint"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	viper.SetEnvPrefix("attsim")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "fly a vessel and record the run",
		RunE:  runSimulation,
	}
	addVesselFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "fly a vessel interactively in the terminal",
		RunE:  runLive,
	}
	addVesselFlags(liveCmd)
	liveCmd.Flags().Float64Var(&speed, "speed", 1, "simulation speed relative to real time")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the attitude error as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list vessel presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg, _ := config.GetPreset(name)
				fmt.Printf("  %-10s %d actuators, mode %s, %.0fs\n", name, len(cfg.Vessel.Actuators), modeName(cfg.Mode), cfg.Duration)
			}
			return nil
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "explore controller tuning",
	}
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one controller tunable",
		RunE:  runSweep,
	}
	addVesselFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "kd_factor", "tunable to sweep")
	sweepCmd.Flags().Float64Var(&minVal, "min", 0.2, "lowest value")
	sweepCmd.Flags().Float64Var(&maxVal, "max", 1.0, "highest value")
	sweepCmd.Flags().IntVar(&steps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unlimited)")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "fly from randomly perturbed initial conditions",
		RunE:  runMonteCarlo,
	}
	addVesselFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&spread, "spread", 30, "attitude perturbation per angle, degrees")
	mcCmd.Flags().Float64Var(&rateSpr, "rate-spread", 0.05, "body rate perturbation, rad/s")
	mcCmd.Flags().Float64Var(&band, "band", 0.02, "settled error band, radians")
	mcCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	mcCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unlimited)")
	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "search a grid of controller tunables",
		RunE:  runGrid,
	}
	addVesselFlags(gridCmd)
	gridCmd.Flags().StringArrayVar(&grid, "grid", []string{"kp_factor=0.6,0.8,1", "kd_factor=0.4,0.7,1"}, "tunable=v1,v2,... (repeatable)")
	gridCmd.Flags().StringVar(&goal, "objective", "settling_time", "metric to minimize")
	gridCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unlimited)")
	tuneCmd.AddCommand(sweepCmd, mcCmd, gridCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "ringing analysis of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&phaseAxis, "phase", "", "draw the error/rate phase portrait for an axis (pitch, roll, yaw)")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, analyzeCmd, presetsCmd, scenarioCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addVesselFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "vessel config file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "probe", "vessel preset when no config file is given")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator override (euler, rk4)")
}

// loadConfig resolves the vessel configuration from a file or preset and
// applies command line overrides.
func loadConfig() (*config.Config, string, error) {
	var (
		cfg    *config.Config
		source string
		err    error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
		source = configFile
	} else {
		cfg, err = config.GetPreset(preset)
		source = "preset:" + preset
	}
	if err != nil {
		return nil, "", err
	}

	if dt > 0 {
		cfg.Dt = dt
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	if integrator != "" {
		cfg.Integrator = integrator
	}
	if viper.IsSet("log-level") {
		cfg.Log.Level = viper.GetString("log-level")
	}
	if viper.IsSet("log-format") {
		cfg.Log.Format = viper.GetString("log-format")
	}
	if addr := viper.GetString("metrics-addr"); addr != "" {
		cfg.MetricsAddr = addr
	}
	applyTracingFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, source, nil
}

func applyTracingFlags(cfg *config.Config) {
	if exp := viper.GetString("trace"); exp != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = exp
	}
	if ep := viper.GetString("trace-endpoint"); ep != "" {
		cfg.Tracing.Endpoint = ep
	}
}

// startTracing installs the tracer provider and returns its flush func.
func startTracing(ctx context.Context, cfg *config.Config, log logging.Logger) (func(), error) {
	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return nil, err
	}
	return func() { observability.ShutdownWithTimeout(context.Background(), shutdown, log) }, nil
}

func newLogger() logging.Logger {
	return logging.New(logging.Config{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// serveMetrics starts a /metrics endpoint when addr is set and returns an
// observer feeding it. The returned stop func is always safe to call.
func serveMetrics(ctx context.Context, addr string, log logging.Logger) (dynamo.Observer, func(), error) {
	if addr == "" {
		return nil, func() {}, nil
	}
	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logging.Err(err))
		}
	}()
	log.Info(ctx, "serving metrics", logging.String("addr", addr))

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return collector, stop, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, source, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log)
	ctx, cancel := signalContext()
	defer cancel()
	flush, err := startTracing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer flush()

	sm, err := cfg.NewSimulator(log)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard(sm.PlantMOI()) {
		sm.AddMetric(m)
	}
	obs, stop, err := serveMetrics(ctx, cfg.MetricsAddr, log)
	if err != nil {
		return err
	}
	defer stop()
	if obs != nil {
		sm.AddObserver(obs)
	}

	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := sm.Run(ctx, simCfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := saveRun(storage.RunInfo{
		Source:     source,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	printResult(runID, result)
	return nil
}

func saveRun(info storage.RunInfo, result *sim.Result) (string, error) {
	st := storage.New(viper.GetString("data"))
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(info, result)
}

func printResult(runID string, result *sim.Result) {
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("resets: %d\n", result.Resets)
	fmt.Printf("final error: %.3f°\n", viz.Degrees(result.Final.ErrorAngle))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	// the alt screen owns stdout; keep logs out of it
	sm, err := cfg.NewSimulator(logging.Noop())
	if err != nil {
		return err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return viz.Run(ctx, cfg.Vessel.Name, sm, simCfg, speed)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(viper.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVESSEL\tTIME\tSOURCE\tDURATION\tDT\tINTEG\tFINAL ERR\tRESETS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1fs\t%.3fs\t%s\t%.2f°\t%d\n",
			run.ID,
			run.Vessel,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Source,
			run.Duration,
			run.Dt,
			run.Integrator,
			viz.Degrees(run.FinalError),
			run.Resets,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(viper.GetString("data"))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no telemetry", runID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("vessel: %s\n", meta.Vessel)
	fmt.Printf("samples: %d\n", len(samples))
	fmt.Println("axes: pitch red, roll green, yaw blue")
	fmt.Println()

	plots := []struct {
		caption string
		pick    func(dynamo.Sample) [3]float64
	}{
		{"attitude error (deg)", func(s dynamo.Sample) [3]float64 {
			return [3]float64{viz.Degrees(s.Error[0]), viz.Degrees(s.Error[1]), viz.Degrees(s.Error[2])}
		}},
		{"body rate (rad/s)", func(s dynamo.Sample) [3]float64 { return s.Rate }},
		{"command", func(s dynamo.Sample) [3]float64 { return s.Command }},
		{"authority", func(s dynamo.Sample) [3]float64 { return s.Authority }},
	}
	for _, p := range plots {
		fmt.Println(viz.PlotAxes(samples, p.pick, 80, 10, p.caption))
		fmt.Println()
	}

	fill := storage.Series(samples, func(s dynamo.Sample) float64 { return s.WheelFill })
	fmt.Println(viz.PlotSeries(fill, 80, 6, "wheel momentum fill"))

	if svgFile == "" {
		return nil
	}
	f, err := os.Create(svgFile)
	if err != nil {
		return err
	}
	defer f.Close()
	times := storage.Series(samples, func(s dynamo.Sample) float64 { return s.Time })
	series := make([][]float64, 3)
	for axis := range series {
		series[axis] = storage.Series(samples, func(s dynamo.Sample) float64 { return viz.Degrees(s.Error[axis]) })
	}
	if err := viz.WriteSeriesSVG(f, times, series, viz.SVGColors[:], 900, 300); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgFile)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(viper.GetString("data"))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	result := &sim.Result{
		Vessel:     meta.Vessel,
		Samples:    samples,
		Metrics:    meta.Metrics,
		StepsTaken: meta.Steps,
		Resets:     meta.Resets,
	}
	if outFile != "" {
		if err := storage.ExportJSON(outFile, meta.RunInfo, result); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", runID, outFile)
		return nil
	}
	return storage.WriteJSON(os.Stdout, meta.RunInfo, result)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	cfg, _, err := sc.Build()
	if err != nil {
		return err
	}
	log := newLogger()
	ctx, cancel := signalContext()
	defer cancel()
	applyTracingFlags(cfg)
	flush, err := startTracing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer flush()

	obs, stop, err := serveMetrics(ctx, viper.GetString("metrics-addr"), log)
	if err != nil {
		return err
	}
	defer stop()
	var observers []dynamo.Observer
	if obs != nil {
		observers = append(observers, obs)
	}

	result, err := scenario.Run(ctx, sc, log, observers...)
	if err != nil {
		return err
	}
	runID, err := saveRun(storage.RunInfo{
		Source:     "scenario:" + sc.Name,
		Dt:         cfg.Dt,
		Duration:   sc.Duration(),
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("scenario: %s\n", sc.Name)
	printResult(runID, result)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	log := logging.New(cfg.Log)
	flush, err := startTracing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer flush()

	results, err := scenario.RunSweep(ctx, cfg, scenario.Sweep{
		Param:   param,
		Min:     minVal,
		Max:     maxVal,
		Steps:   steps,
		Workers: workers,
	}, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL ERR\tSETTLING\tEFFORT\tPEAK FILL\n", strings.ToUpper(param))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.3f°\t%s\t%.4f\t%.1f%%\n",
			r.Value,
			viz.Degrees(r.Final),
			settling(r.Metrics),
			r.Metrics["control_effort"],
			r.Metrics["wheel_saturation"]*100,
		)
	}
	return w.Flush()
}

func settling(m map[string]float64) string {
	v, ok := m["settling_time"]
	if !ok || v < 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fs", v)
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	log := logging.New(cfg.Log)
	flush, err := startTracing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer flush()

	results, err := scenario.RunMonteCarlo(ctx, cfg, scenario.MonteCarlo{
		Trials:         trials,
		AttitudeSpread: spread,
		RateSpread:     rateSpr,
		SettleBand:     band,
		Seed:           seed,
		Workers:        workers,
	}, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tHDG\tPITCH\tROLL\tFINAL ERR\tSETTLED")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%.1f\t%.3f°\t%v\n",
			r.Trial, r.Attitude.Heading, r.Attitude.Pitch, r.Attitude.Roll, viz.Degrees(r.Final), r.Settled)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	settled, unsettled := scenario.MonteCarloStats(results)
	fmt.Printf("\nsettled %d/%d (seed %d)\n", settled, settled+unsettled, seed)
	return nil
}

func modeName(m config.ModeConfig) string {
	if m.Kind == "" {
		return "kill"
	}
	return m.Kind
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(viper.GetString("data"))
	samples, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	reports, err := analysis.Analyze(samples)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AXIS\tPEAK ERR\tOVERSHOOT\tCROSSINGS\tDOMINANT\tAMPLITUDE")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%.2f°\t%.1f%%\t%d\t%.3f Hz\t%.3f°\n",
			r.Axis, viz.Degrees(r.PeakError), r.Overshoot*100, r.ZeroCrossings, r.Frequency, viz.Degrees(r.Amplitude))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if phaseAxis == "" {
		return nil
	}
	axis := -1
	for i, name := range dynamo.AxisNames {
		if name == phaseAxis {
			axis = i
		}
	}
	if axis < 0 {
		return fmt.Errorf("unknown axis %q: %w", phaseAxis, dynamo.ErrUnknownParam)
	}
	fmt.Printf("\n%s error (x) vs rate (y)\n", phaseAxis)
	fmt.Print(analysis.NewPhasePortrait(samples, axis).ASCII(70, 20))
	return nil
}

// parseGrid reads "name=v1,v2,..." entries.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, e := range entries {
		name, list, ok := strings.Cut(e, "=")
		if !ok {
			return nil, nil, fmt.Errorf("grid entry %q: want name=v1,v2", e)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid entry %q: %w", e, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	search, err := optim.NewGridSearch(names, ranges, workers)
	if err != nil {
		return err
	}
	objective := optim.MinimizeMetric(goal)
	if goal == "settling_time" {
		objective = optim.MinimizeSettling()
	}

	ctx, cancel := signalContext()
	defer cancel()
	log := logging.New(cfg.Log)
	flush, err := startTracing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer flush()
	fmt.Printf("searching %d points\n", search.Size())
	candidates, best, err := search.Search(ctx, cfg, objective, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(goal))
	for i, c := range candidates {
		cols := make([]string, len(names))
		for j, name := range names {
			cols[j] = strconv.FormatFloat(c.Params[name], 'g', 4, 64)
		}
		mark := ""
		if i == best {
			mark = "  <- best"
		}
		fmt.Fprintf(w, "%s\t%.4f%s\n", strings.Join(cols, "\t"), c.Score, mark)
	}
	return w.Flush()
}
