package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/emtz/motorlab/internal/analysis"
	"github.com/emtz/motorlab/internal/config"
	"github.com/emtz/motorlab/internal/export"
	"github.com/emtz/motorlab/internal/hinf"
	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/logger"
	"github.com/emtz/motorlab/internal/metrics"
	"github.com/emtz/motorlab/internal/serialio"
	"github.com/emtz/motorlab/internal/sim"
	"github.com/emtz/motorlab/internal/storage"
	"github.com/emtz/motorlab/internal/telemetry"
	"github.com/emtz/motorlab/internal/tui"
)

var (
	dataDir    string
	configFile string

	// acquire / live
	port     string
	baud     int
	capacity int
	drive    int
	duration float64

	// identify
	outputChan  string
	order       int
	stepLevel   float64
	target      float64
	residualTol float64
	adcMax      int
	travelUm    float64
	outFile     string
	reduceModel bool

	// design
	modelFile string
	gain      float64
	tau       float64
	tau1      float64
	tau2      float64
	method    string
	preset    string
	ms        float64
	wb        float64
	eps       float64
	umax      float64
	wbu       float64
	epsU      float64
	wt        float64
	epsT      float64

	// simulate
	refSpec string
	dt      float64

	// export
	ts float64

	// plot
	channelName string
)

// main registers the motorlab commands and executes the root command,
// exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "motorlab",
		Short: "dc motor rig: telemetry, identification, hinf design",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	acquireCmd := &cobra.Command{
		Use:   "acquire [name]",
		Short: "record telemetry from the rig",
		Args:  cobra.ExactArgs(1),
		RunE:  acquireRecording,
	}
	acquireCmd.Flags().StringVar(&port, "port", config.DefaultPort, "serial device")
	acquireCmd.Flags().IntVar(&baud, "baud", config.DefaultBaud, "baud rate")
	acquireCmd.Flags().IntVar(&capacity, "capacity", config.DefaultCapacity, "ring buffer capacity")
	acquireCmd.Flags().IntVar(&drive, "drive", 0, "step drive to apply, PWM units")
	acquireCmd.Flags().Float64Var(&duration, "time", 10.0, "recording duration, seconds")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "live telemetry view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&port, "port", config.DefaultPort, "serial device")
	liveCmd.Flags().IntVar(&baud, "baud", config.DefaultBaud, "baud rate")
	liveCmd.Flags().IntVar(&capacity, "capacity", config.DefaultCapacity, "ring buffer capacity")

	identifyCmd := &cobra.Command{
		Use:   "identify [recording_id]",
		Short: "fit a step-response model to a recording",
		Args:  cobra.ExactArgs(1),
		RunE:  identifyRecording,
	}
	identifyCmd.Flags().StringVar(&outputChan, "output", "sensor_1", "output channel")
	identifyCmd.Flags().IntVar(&order, "order", config.DefaultOrder, "model order (1 or 2)")
	identifyCmd.Flags().Float64Var(&stepLevel, "step", 0, "applied step amplitude, PWM units (0 = infer from power_a)")
	identifyCmd.Flags().Float64Var(&target, "target", math.NaN(), "commanded position, physical units")
	identifyCmd.Flags().Float64Var(&residualTol, "residual-tol", 0.05, "max relative fit residual")
	identifyCmd.Flags().IntVar(&adcMax, "adc-max", config.DefaultADCMax, "full-scale ADC count")
	identifyCmd.Flags().Float64Var(&travelUm, "travel", config.DefaultTravelUm, "sensor travel, micrometers")
	identifyCmd.Flags().StringVar(&outFile, "out", "", "write model JSON to file")
	identifyCmd.Flags().BoolVar(&reduceModel, "reduce", false, "reduce an order-2 fit to its fast-pole equivalent")

	designCmd := &cobra.Command{
		Use:   "design [name]",
		Short: "synthesize a controller and reduce it to PI",
		Args:  cobra.ExactArgs(1),
		RunE:  designController,
	}
	designCmd.Flags().StringVar(&modelFile, "model", "", "model JSON from identify")
	designCmd.Flags().Float64Var(&gain, "k", 0, "plant gain")
	designCmd.Flags().Float64Var(&tau, "tau", 0, "time constant (order 1)")
	designCmd.Flags().Float64Var(&tau1, "tau1", 0, "fast time constant (order 2)")
	designCmd.Flags().Float64Var(&tau2, "tau2", 0, "slow time constant (order 2)")
	designCmd.Flags().IntVar(&order, "order", config.DefaultOrder, "model order")
	designCmd.Flags().StringVar(&method, "method", "hinf", "synthesis method (hinf or h2)")
	designCmd.Flags().StringVar(&preset, "preset", "", "weight preset name")
	designCmd.Flags().Float64Var(&ms, "ms", 2.0, "sensitivity peak bound")
	designCmd.Flags().Float64Var(&wb, "wb", 5.0, "performance bandwidth, rad/s")
	designCmd.Flags().Float64Var(&eps, "eps", 0.01, "steady-state error bound")
	designCmd.Flags().Float64Var(&umax, "umax", 255, "control authority, PWM units")
	designCmd.Flags().Float64Var(&wbu, "wbu", 0.5, "effort corner, rad/s")
	designCmd.Flags().Float64Var(&epsU, "epsu", 0.01, "effort weight floor")
	designCmd.Flags().Float64Var(&wt, "wt", 50, "robustness crossover, rad/s")
	designCmd.Flags().Float64Var(&epsT, "epst", 0.01, "robustness weight floor")

	simulateCmd := &cobra.Command{
		Use:   "simulate [design_id]",
		Short: "run the reduced controller against the identified model",
		Args:  cobra.ExactArgs(1),
		RunE:  simulateDesign,
	}
	simulateCmd.Flags().StringVar(&refSpec, "ref", "0:100", "reference schedule, time:level pairs")
	simulateCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	simulateCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")

	exportCmd := &cobra.Command{
		Use:   "export [design_id]",
		Short: "export discrete PI coefficients and firmware snippet",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDesign,
	}
	exportCmd.Flags().Float64Var(&ts, "ts", config.DefaultTs, "firmware sample period, seconds")
	exportCmd.Flags().StringVar(&outFile, "out", "-", "output path (- for stdout)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recordings and designs",
		RunE:  listAll,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [recording_id]",
		Short: "noise and frequency analysis of a recording",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRecording,
	}
	analyzeCmd.Flags().StringVar(&channelName, "channel", "sensor_1", "channel to analyze")

	plotCmd := &cobra.Command{
		Use:   "plot [recording_id]",
		Short: "plot a recording",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRecording,
	}
	plotCmd.Flags().StringVar(&channelName, "channel", "", "single channel to plot")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list weight presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMS\tWB\tUMAX\tWT")
			for _, name := range names {
				p, _ := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.2f\t%.1f\t%.0f\t%.0f\n", name, p.Ms, p.Wb, p.Umax, p.Wt)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(acquireCmd, liveCmd, identifyCmd, designCmd, simulateCmd, exportCmd, listCmd, analyzeCmd, plotCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges the optional config file under the CLI flags: a flag the
// user set always wins.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if f := cmd.Flags(); f != nil {
		if !f.Changed("port") {
			port = cfg.Serial.Port
		}
		if !f.Changed("baud") {
			baud = cfg.Serial.Baud
		}
		if !f.Changed("capacity") {
			capacity = cfg.Buffer.Capacity
		}
		if !f.Changed("adc-max") {
			adcMax = cfg.Calibration.ADCMax
		}
		if !f.Changed("travel") {
			travelUm = cfg.Calibration.TravelUm
		}
		if !f.Changed("order") {
			order = cfg.Identification.Order
		}
		if !f.Changed("residual-tol") {
			residualTol = cfg.Identification.ResidualTol
		}
		if !f.Changed("dt") {
			dt = cfg.Sim.Dt
		}
		if !f.Changed("time") {
			duration = cfg.Sim.Duration
		}
		if !f.Changed("ts") {
			ts = cfg.Export.Ts
		}
	}
	return cfg, nil
}

func acquireRecording(cmd *cobra.Command, args []string) error {
	name := args[0]
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	ring, err := telemetry.NewRing(capacity)
	if err != nil {
		return err
	}

	p, err := serialio.Open(port, baud)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(duration*float64(time.Second)))
	defer cancel()

	if drive != 0 {
		if err := p.SendCommand(fmt.Sprintf("P,%d", drive)); err != nil {
			return err
		}
		defer p.SendCommand("P,0")
	}

	reader := serialio.NewReader(p, ring)
	fmt.Printf("recording %s from %s for %.1fs...\n", name, port, duration)

	err = reader.Run(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}

	samples := ring.Snapshot(ring.Len())
	if len(samples) == 0 {
		return fmt.Errorf("no samples received from %s", port)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.SaveRecording(name, port, baud, reader.Dropped(), samples)
	if err != nil {
		return err
	}

	fmt.Printf("recording id: %s\n", id)
	fmt.Printf("samples: %d (dropped %d)\n", len(samples), reader.Dropped())
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	ring, err := telemetry.NewRing(capacity)
	if err != nil {
		return err
	}

	p, err := serialio.Open(port, baud)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := serialio.NewReader(p, ring)
	go func() {
		if err := reader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reader stopped: %v", err)
		}
	}()

	return tui.Run(ring, reader)
}

func identifyRecording(cmd *cobra.Command, args []string) error {
	recordingID := args[0]
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	ch, ok := telemetry.ChannelByName(outputChan)
	if !ok || ch == telemetry.ChanTime {
		return fmt.Errorf("unknown output channel: %s", outputChan)
	}

	st := storage.New(dataDir)
	samples, err := st.LoadRecording(recordingID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("recording %s is empty", recordingID)
	}

	times := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.Time
	}
	raw := channelSeries(samples, ch)

	step := stepLevel
	if step == 0 {
		step = inferStepLevel(samples)
		if step == 0 {
			return fmt.Errorf("no drive found in power_a; pass --step")
		}
		fmt.Printf("inferred step amplitude: %.0f\n", step)
	}

	identifier := ident.NewIdentifier(ident.Calibration{
		ADCMax:   float64(adcMax),
		TravelUm: travelUm,
	})
	identifier.ResidualTol = residualTol

	model, stepMetrics, err := identifier.Identify(times, raw, step, order, target)
	if err != nil {
		return err
	}

	if reduceModel && model.Order == 2 {
		fmt.Printf("full fit: %s (pole ratio %.1f)\n", model.String(), model.PoleRatio())
		reduced, rerr := model.FastEquivalent()
		if rerr != nil {
			var ill *ident.IllConditionedReductionError
			if !errors.As(rerr, &ill) {
				return rerr
			}
			logger.Info("pole separation %.1f is below %.0f; reduced model is untrustworthy", ill.Ratio, ident.MinPoleSeparation)
		}
		model = reduced
	}

	fmt.Printf("model: %s\n", model.String())
	fmt.Printf("settling time: %.3fs\n", stepMetrics.SettlingTime)
	fmt.Printf("overshoot: %.1f%%\n", stepMetrics.Overshoot)
	if !math.IsNaN(stepMetrics.SteadyStateError) {
		fmt.Printf("steady-state error: %.3f\n", stepMetrics.SteadyStateError)
	}

	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(model); err != nil {
			return err
		}
		fmt.Printf("model written to %s\n", outFile)
	}
	return nil
}

// inferStepLevel takes the drive active at the end of the recording, which
// for a step experiment is the step amplitude.
func inferStepLevel(samples []telemetry.Sample) float64 {
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].PowerA != 0 {
			return float64(samples[i].PowerA)
		}
	}
	return 0
}

func designController(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	model, err := resolveModel(cmd)
	if err != nil {
		return err
	}

	params := cfg.Weights
	if preset != "" {
		p, ok := config.GetPreset(preset)
		if !ok {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		params = p
	}
	f := cmd.Flags()
	if f.Changed("ms") {
		params.Ms = ms
	}
	if f.Changed("wb") {
		params.Wb = wb
	}
	if f.Changed("eps") {
		params.Eps = eps
	}
	if f.Changed("umax") {
		params.Umax = umax
	}
	if f.Changed("wbu") {
		params.Wbu = wbu
	}
	if f.Changed("epsu") {
		params.EpsU = epsU
	}
	if f.Changed("wt") {
		params.Wt = wt
	}
	if f.Changed("epst") {
		params.EpsT = epsT
	}

	weights, err := hinf.BuildWeights(params)
	if err != nil {
		return err
	}

	var m hinf.Method
	switch method {
	case "hinf":
		m = hinf.MethodHinf
	case "h2":
		m = hinf.MethodH2
	default:
		return fmt.Errorf("unknown method: %s", method)
	}

	session := hinf.NewSession(model, weights, m)

	fmt.Printf("synthesizing %s controller for %s...\n", method, model.String())
	start := time.Now()
	if err := session.Design(); err != nil {
		var inf *hinf.InfeasibleError
		if errors.As(err, &inf) {
			return fmt.Errorf("%w\nhint: %s", err, inf.Hint)
		}
		return err
	}
	if err := session.Reduce(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	ctl := session.Controller
	fmt.Printf("completed in %v\n\n", elapsed)
	fmt.Printf("gamma (solver):   %.4f\n", ctl.Gamma)
	fmt.Printf("gamma (verified): %.4f\n", ctl.GammaVerified)
	fmt.Printf("  |W1 S|:  %.4f\n", ctl.Norms.W1S)
	fmt.Printf("  |W2 KS|: %.4f\n", ctl.Norms.W2KS)
	fmt.Printf("  |W3 T|:  %.4f\n", ctl.Norms.W3T)
	printMargin("gain margin", ctl.Margins.GainMarginDB, "dB")
	printMargin("phase margin", ctl.Margins.PhaseMarginDeg, "deg")
	fmt.Printf("\nreduced PI: Kp = %.4f, Ki = %.4f\n", ctl.Kp, ctl.Ki)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.SaveDesign(name, model, params, ctl)
	if err != nil {
		return err
	}
	fmt.Printf("design id: %s\n", id)
	return nil
}

func printMargin(label string, v float64, unit string) {
	if math.IsInf(v, 1) {
		fmt.Printf("%s: inf\n", label)
		return
	}
	fmt.Printf("%s: %.1f %s\n", label, v, unit)
}

// resolveModel builds the plant model from --model JSON or the k/tau flags.
func resolveModel(cmd *cobra.Command) (ident.Model, error) {
	if modelFile != "" {
		data, err := os.ReadFile(modelFile)
		if err != nil {
			return ident.Model{}, err
		}
		var m ident.Model
		if err := json.Unmarshal(data, &m); err != nil {
			return ident.Model{}, fmt.Errorf("failed to parse model file: %w", err)
		}
		return m, nil
	}

	if gain == 0 {
		return ident.Model{}, fmt.Errorf("no model: pass --model or --k with --tau (or --tau1/--tau2)")
	}
	m := ident.Model{Order: order, K: gain, Tau: tau, Tau1: tau1, Tau2: tau2}
	switch order {
	case 1:
		if tau <= 0 {
			return ident.Model{}, fmt.Errorf("order 1 needs --tau > 0")
		}
	case 2:
		if tau1 <= 0 || tau2 <= 0 {
			return ident.Model{}, fmt.Errorf("order 2 needs --tau1 and --tau2 > 0")
		}
	default:
		return ident.Model{}, fmt.Errorf("order must be 1 or 2, got %d", order)
	}
	return m, nil
}

func simulateDesign(cmd *cobra.Command, args []string) error {
	designID := args[0]
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.LoadDesign(designID)
	if err != nil {
		return err
	}

	ref, err := parseSchedule(refSpec)
	if err != nil {
		return err
	}

	cfg := sim.Config{Dt: dt, Duration: duration}
	res, err := sim.RunPI(context.Background(), meta.Model, meta.Kp, meta.Ki, ref, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("design: %s (Kp = %.4f, Ki = %.4f)\n", meta.ID, meta.Kp, meta.Ki)
	fmt.Printf("steps: %d\n\n", len(res.Times))

	fmt.Println(asciigraph.Plot(res.Output,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("output vs time"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(res.Control,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("drive vs time"),
	))
	fmt.Println()

	settling := sim.SettlingTime(res, 0.02)
	if settling < duration-dt {
		fmt.Printf("settling time (2%%): %.3fs\n", settling)
	} else {
		fmt.Println("did not settle within the run")
	}
	final := res.Output[len(res.Output)-1]
	refFinal := res.Reference[len(res.Reference)-1]
	fmt.Printf("final output: %.3f (reference %.3f)\n", final, refFinal)

	fmt.Println("\nmetrics:")
	scores := metrics.Evaluate(res)
	for _, name := range []string{"iae", "ise", "control_effort", "peak_drive"} {
		fmt.Printf("  %s: %.4f\n", name, scores[name])
	}
	return nil
}

func exportDesign(cmd *cobra.Command, args []string) error {
	designID := args[0]
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	st := storage.New(dataDir)
	meta, err := st.LoadDesign(designID)
	if err != nil {
		return err
	}

	d, err := export.Discretize(meta.Kp, meta.Ki, ts)
	if err != nil {
		return err
	}

	doc := export.Document{
		Design:        meta.ID,
		Kp:            meta.Kp,
		Ki:            meta.Ki,
		Discrete:      d,
		GammaVerified: meta.GammaVerified,
		Firmware:      export.CSnippet(d, sim.UMin, sim.UMax),
	}
	if err := export.WriteJSON(outFile, doc); err != nil {
		return err
	}
	if outFile != "-" {
		fmt.Printf("exported to %s\n", outFile)
	}
	return nil
}

func listAll(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	recordings, err := st.ListRecordings()
	if err != nil {
		return err
	}
	designs, err := st.ListDesigns()
	if err != nil {
		return err
	}

	if len(recordings) == 0 && len(designs) == 0 {
		fmt.Println("nothing recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(recordings) > 0 {
		fmt.Fprintln(w, "RECORDING\tTIME\tSAMPLES\tDURATION\tDROPPED")
		for _, r := range recordings {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2fs\t%d\n",
				r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Samples, r.Duration, r.Dropped)
		}
	}
	if len(designs) > 0 {
		if len(recordings) > 0 {
			fmt.Fprintln(w, "\t\t\t\t")
		}
		fmt.Fprintln(w, "DESIGN\tTIME\tMETHOD\tGAMMA\tKP\tKI")
		for _, d := range designs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%.3f\t%.3f\n",
				d.ID, d.Timestamp.Format("2006-01-02 15:04:05"), d.Method, d.GammaVerified, d.Kp, d.Ki)
		}
	}
	return w.Flush()
}

func analyzeRecording(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	recordingID := args[0]

	ch, ok := telemetry.ChannelByName(channelName)
	if !ok || ch == telemetry.ChanTime {
		return fmt.Errorf("unknown channel: %s", channelName)
	}

	st := storage.New(dataDir)
	samples, err := st.LoadRecording(recordingID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data")
	}

	times := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.Time
	}
	data := channelSeries(samples, ch)

	rate := analysis.SampleRate(times)
	if rate == 0 {
		return fmt.Errorf("recording has no usable timestamps")
	}

	fmt.Printf("recording: %s\n", recordingID)
	fmt.Printf("channel: %s\n", ch)
	fmt.Printf("sample rate: %.1f Hz\n", rate)
	fmt.Printf("noise rms: %.3f counts\n\n", analysis.NoiseRMS(data))

	spec, err := analysis.PowerSpectrum(data, rate)
	if err != nil {
		return err
	}

	fmt.Println(asciigraph.Plot(spec.Power,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum, 0 to %.1f Hz", rate/2)),
	))
	fmt.Println()

	freq, power := spec.Dominant()
	fmt.Printf("dominant component: %.2f Hz (power %.3f)\n", freq, power)
	return nil
}

func channelSeries(samples []telemetry.Sample, ch telemetry.Channel) []float64 {
	data := make([]float64, len(samples))
	for i, s := range samples {
		switch ch {
		case telemetry.ChanPowerA:
			data[i] = float64(s.PowerA)
		case telemetry.ChanPowerB:
			data[i] = float64(s.PowerB)
		case telemetry.ChanSensor1:
			data[i] = float64(s.Sensor1)
		case telemetry.ChanSensor2:
			data[i] = float64(s.Sensor2)
		}
	}
	return data
}

func plotRecording(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	recordingID := args[0]

	st := storage.New(dataDir)
	samples, err := st.LoadRecording(recordingID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	channels := []telemetry.Channel{
		telemetry.ChanPowerA, telemetry.ChanPowerB,
		telemetry.ChanSensor1, telemetry.ChanSensor2,
	}
	if channelName != "" {
		ch, ok := telemetry.ChannelByName(channelName)
		if !ok || ch == telemetry.ChanTime {
			return fmt.Errorf("unknown channel: %s", channelName)
		}
		channels = []telemetry.Channel{ch}
	}

	fmt.Printf("recording: %s\n", recordingID)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, ch := range channels {
		data := channelSeries(samples, ch)
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(ch.String()),
		))
		fmt.Println()
	}
	return nil
}

// parseSchedule parses "0:100,2.5:200" into a reference schedule.
func parseSchedule(spec string) (sim.Schedule, error) {
	var sched sim.Schedule
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		at, level, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("bad schedule entry %q, want time:level", part)
		}
		t, err := strconv.ParseFloat(at, 64)
		if err != nil {
			return nil, fmt.Errorf("bad time in %q: %w", part, err)
		}
		l, err := strconv.ParseFloat(level, 64)
		if err != nil {
			return nil, fmt.Errorf("bad level in %q: %w", part, err)
		}
		sched = append(sched, sim.Step{At: t, Level: l})
	}
	if len(sched) == 0 {
		return nil, fmt.Errorf("empty schedule")
	}
	return sched, nil
}
