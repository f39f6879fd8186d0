package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"osinet/internal/dataset"
	"osinet/internal/osi"
	"osinet/internal/storage"
	osinet "osinet/pkg/osinet"
)

const (
	runsDir    = "runs"
	exportsDir = "exports"
	dbDefault  = "osinet.db"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "train":
		return runTrain(ctx, args[1:])
	case "crossval":
		return runCrossVal(ctx, args[1:])
	case "predict":
		return runPredict(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "experiments":
		return runExperiments(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "datasets":
		for _, name := range dataset.BuiltinNames() {
			fmt.Println(name)
		}
		return nil
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// stderrIsTerminal decides whether progress lines are shown by default.
func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newClient(storeKind, dbPath string) (*osinet.Client, error) {
	return osinet.New(osinet.Options{
		StoreKind:  storeKind,
		DBPath:     dbPath,
		RunsDir:    runsDir,
		ExportsDir: exportsDir,
	})
}

type dataFlags struct {
	dataset     *string
	csvPath     *string
	labelColumn *int
	header      *bool
}

func addDataFlags(fs *flag.FlagSet) dataFlags {
	return dataFlags{
		dataset:     fs.String("dataset", "blobs", "built-in dataset: "+strings.Join(dataset.BuiltinNames(), "|")),
		csvPath:     fs.String("csv", "", "CSV dataset path (overrides --dataset)"),
		labelColumn: fs.Int("label-column", -1, "label column index, negative counts from the end"),
		header:      fs.Bool("header", false, "CSV has a header row"),
	}
}

func (d dataFlags) source() osinet.DataSource {
	return osinet.DataSource{
		Dataset:     *d.dataset,
		CSVPath:     *d.csvPath,
		LabelColumn: *d.labelColumn,
		Header:      *d.header,
	}
}

func runTrain(ctx context.Context, args []string) error {
	def := osi.DefaultConfig()
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional train config JSON path")
	data := addDataFlags(fs)
	hidden := fs.String("hidden", "3", "comma separated hidden layer sizes")
	activation := fs.String("activation", "sigmoid", "activation: sigmoid|tanh|relu|identity")
	particles := fs.Int("particles", def.NumParticles, "particles per swarm")
	swarms := fs.Int("swarms", def.NumSwarms, "swarms updated per iteration (negative selects all)")
	method := fs.String("method", def.Method, "swarm selection: random|round-robin|iterative|worst-first")
	window := fs.Int("window", def.Window, "convergence window")
	inertia := fs.Float64("w", def.Inertia, "inertia weight")
	cognitive := fs.Float64("c1", def.Cognitive, "cognitive coefficient")
	social := fs.Float64("c2", def.Social, "social coefficient")
	minWeight := fs.Float64("min-weight", def.Bounds.MinWeight, "lower weight bound")
	maxWeight := fs.Float64("max-weight", def.Bounds.MaxWeight, "upper weight bound")
	minVelocity := fs.Float64("min-v", def.Bounds.MinVelocity, "lower velocity bound")
	maxVelocity := fs.Float64("max-v", def.Bounds.MaxVelocity, "upper velocity bound")
	maxIterations := fs.Int("max-iterations", def.MaxIterations, "iteration cap")
	validationSize := fs.Float64("validation-size", 0.25, "share of training rows held out for convergence scoring")
	testSize := fs.Float64("test-size", 0.5, "share of rows held out for the test score")
	seed := fs.Int64("seed", 1, "rng seed")
	verbose := fs.Bool("verbose", stderrIsTerminal(), "print per-iteration progress to stderr")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", dbDefault, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	flagValues := map[string]any{
		"dataset":         *data.dataset,
		"csv":             *data.csvPath,
		"label-column":    *data.labelColumn,
		"header":          *data.header,
		"hidden":          *hidden,
		"activation":      *activation,
		"particles":       *particles,
		"swarms":          *swarms,
		"method":          *method,
		"window":          *window,
		"w":               *inertia,
		"c1":              *cognitive,
		"c2":              *social,
		"min-weight":      *minWeight,
		"max-weight":      *maxWeight,
		"min-v":           *minVelocity,
		"max-v":           *maxVelocity,
		"max-iterations":  *maxIterations,
		"validation-size": *validationSize,
		"test-size":       *testSize,
		"seed":            *seed,
	}
	req, err := loadOrDefaultTrainRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		// every flag applies when there is no config to override
		for name := range flagValues {
			setFlags[name] = true
		}
	}
	if err := overrideFromFlags(&req, setFlags, flagValues); err != nil {
		return err
	}
	req.Verbose = *verbose
	if req.Verbose {
		req.Log = os.Stderr
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Train(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("train completed run_id=%s layers=%s paths=%d method=%s swarms=%d particles=%d seed=%d\n",
		summary.RunID, formatInts(summary.Layers, "-"), summary.NumPaths, req.Method, req.NumSwarms, req.NumParticles, req.Seed)
	fmt.Printf("iterations=%s evaluations=%s converged=%t stop_reason=%s\n",
		humanize.Comma(int64(summary.Iterations)), humanize.Comma(int64(summary.Evaluations)), summary.Converged, summary.StopReason)
	fmt.Printf("best_score=%.6f final_score=%.6f test_mse=%.6f test_accuracy=%.4f\n",
		summary.BestScore, summary.FinalScore, summary.TestMSE, summary.TestAccuracy)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runCrossVal(ctx context.Context, args []string) error {
	def := osi.DefaultConfig()
	fs := flag.NewFlagSet("crossval", flag.ContinueOnError)
	data := addDataFlags(fs)
	methods := fs.String("methods", "random,round-robin,iterative,worst-first", "comma separated selection methods")
	swarms := fs.String("swarms", "1,5,10,20", "comma separated swarm counts")
	windows := fs.String("windows", strconv.Itoa(def.Window), "comma separated convergence windows")
	particles := fs.String("particles", strconv.Itoa(def.NumParticles), "comma separated particle counts")
	hidden := fs.String("hidden", "3", "comma separated hidden layer sizes")
	activation := fs.String("activation", "sigmoid", "activation: sigmoid|tanh|relu|identity")
	maxIterations := fs.Int("max-iterations", def.MaxIterations, "iteration cap per fit")
	validationSize := fs.Float64("validation-size", 0.33, "share of training rows held out for convergence scoring")
	repeats := fs.Int("repeats", 5, "stratified 2-fold repetitions")
	seed := fs.Int64("seed", 1, "rng seed")
	quiet := fs.Bool("quiet", false, "suppress per grid point progress")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", dbDefault, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	hiddenSizes, err := parseInts(*hidden)
	if err != nil {
		return fmt.Errorf("hidden: %w", err)
	}
	swarmCounts, err := parseInts(*swarms)
	if err != nil {
		return fmt.Errorf("swarms: %w", err)
	}
	windowSizes, err := parseInts(*windows)
	if err != nil {
		return fmt.Errorf("windows: %w", err)
	}
	particleCounts, err := parseInts(*particles)
	if err != nil {
		return fmt.Errorf("particles: %w", err)
	}
	methodNames := splitList(*methods)
	for _, name := range methodNames {
		if _, err := osi.ParseMethod(name); err != nil {
			return err
		}
	}

	var progress io.Writer = os.Stdout
	if *quiet {
		progress = nil
	}
	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.CrossValidate(ctx, osinet.CrossValRequest{
		DataSource:     data.source(),
		Optimizer:      osinet.Optimizer{MaxIterations: *maxIterations},
		Methods:        methodNames,
		NumSwarms:      swarmCounts,
		Windows:        windowSizes,
		NumParticles:   particleCounts,
		Hidden:         hiddenSizes,
		Activation:     *activation,
		ValidationSize: *validationSize,
		Repeats:        *repeats,
		Seed:           *seed,
		Progress:       progress,
	})
	if err != nil {
		return err
	}
	fmt.Printf("crossval completed experiment_id=%s dataset=%s grid_points=%d\n", summary.ExperimentID, summary.Dataset, len(summary.Results))
	fmt.Printf("experiment_dir=%s\n", filepath.Clean(summary.Directory))
	return nil
}

func runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run from run index")
	data := addDataFlags(fs)
	seed := fs.Int64("seed", 1, "rng seed for built-in datasets")
	show := fs.Bool("show", false, "print one prediction per row")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", dbDefault, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("predict requires --run-id or --latest")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Predict(ctx, osinet.PredictRequest{
		DataSource: data.source(),
		RunID:      *runID,
		Latest:     *latest,
		Seed:       *seed,
	})
	if err != nil {
		return err
	}
	if *show {
		for i, label := range summary.Predictions {
			fmt.Printf("row=%d prediction=%s\n", i, label)
		}
	}
	if summary.Metrics != nil {
		fmt.Printf("predict run_id=%s rows=%d mse=%.6f accuracy=%.4f\n", summary.RunID, len(summary.Predictions), summary.Metrics.MSE, summary.Metrics.Accuracy)
		return nil
	}
	fmt.Printf("predict run_id=%s rows=%d\n", summary.RunID, len(summary.Predictions))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	items, err := client.Runs(ctx, osinet.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, item := range items {
		age := item.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339Nano, item.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		fmt.Printf("run_id=%s created=%q dataset=%s method=%s swarms=%d particles=%d window=%d seed=%d iterations=%d evaluations=%s test_mse=%.6f test_accuracy=%.4f\n",
			item.RunID,
			age,
			item.Dataset,
			item.Method,
			item.NumSwarms,
			item.NumParticles,
			item.Window,
			item.Seed,
			item.Iterations,
			humanize.Comma(int64(item.Evaluations)),
			item.TestMSE,
			item.TestAccuracy,
		)
	}
	return nil
}

type historyFlags struct {
	runID     *string
	latest    *bool
	limit     *int
	storeKind *string
	dbPath    *string
}

func addHistoryFlags(fs *flag.FlagSet) historyFlags {
	return historyFlags{
		runID:     fs.String("run-id", "", "run id"),
		latest:    fs.Bool("latest", false, "use the most recent run from run index"),
		limit:     fs.Int("limit", 0, "max entries to print (0 prints all)"),
		storeKind: fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", dbDefault, "sqlite database path"),
	}
}

func (h historyFlags) request() osinet.HistoryRequest {
	return osinet.HistoryRequest{RunID: *h.runID, Latest: *h.latest, Limit: *h.limit}
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	h := addHistoryFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := newClient(*h.storeKind, *h.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.ScoreHistory(ctx, h.request())
	if err != nil {
		return err
	}
	for i, score := range history {
		fmt.Printf("index=%d score=%.6f\n", i, score)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	h := addHistoryFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := newClient(*h.storeKind, *h.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, h.request())
	if err != nil {
		return err
	}
	for _, d := range diagnostics {
		fmt.Printf("iteration=%d selected=%s score=%.6f best=%.6f slope=%.6g evaluations=%d\n",
			d.Iteration, formatInts(d.Selected, ","), d.Score, d.BestScore, d.Slope, d.Evaluations)
	}
	return nil
}

func runExperiments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("experiments", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max experiments to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exps, err := client.Experiments(ctx, osinet.ExperimentsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(exps) == 0 {
		fmt.Println("no experiments found")
		return nil
	}
	for _, exp := range exps {
		fmt.Printf("experiment_id=%s dataset=%s repeats=%d seed=%d grid_points=%d started_at=%s\n",
			exp.ID, exp.Dataset, exp.Repeats, exp.Seed, len(exp.Results), exp.StartedAtUTC)
		for _, r := range exp.Results {
			fmt.Printf("  method=%s swarms=%d window=%d particles=%d mean_mse=%.6f std_mse=%.6f mean_accuracy=%.4f mean_evaluations=%s\n",
				r.Method, r.NumSwarms, r.Window, r.NumParticles, r.MeanMSE, r.StdMSE, r.MeanAccuracy, humanize.Commaf(r.MeanEvaluations))
		}
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	exported, err := client.Export(ctx, osinet.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, filepath.Clean(exported.Directory))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: osictl <train|crossval|predict|runs|history|diagnostics|experiments|export|datasets> [flags]", msg)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInts(value string) ([]int, error) {
	parts := splitList(value)
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func formatInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
