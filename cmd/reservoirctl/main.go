package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/mat"

	"pyrcn/internal/activation"
	"pyrcn/internal/dataio"
	"pyrcn/internal/stats"
	"pyrcn/internal/storage"
	"pyrcn/pkg/reservoir"
)

const defaultDBPath = "reservoir.db"

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
	case "activations":
		return runActivations(ctx, args[1:])
	case "generate":
		return runGenerate(ctx, args[1:])
	case "fit":
		return runFit(ctx, args[1:])
	case "transform":
		return runProject(ctx, "transform", args[1:])
	case "states":
		return runProject(ctx, "states", args[1:])
	case "inspect":
		return runInspect(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// storeFlags registers the flags shared by every command that opens a store.
type storeFlags struct {
	kind     *string
	dbPath   *string
	logLevel *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:     fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:   fs.String("db-path", defaultDBPath, "sqlite database path"),
		logLevel: fs.String("log-level", "info", "log level: debug|info|warn|error"),
	}
}

func (f storeFlags) open(ctx context.Context) (*reservoir.Client, error) {
	logger, err := newLogger(*f.logLevel, os.Stderr)
	if err != nil {
		return nil, err
	}
	client, err := reservoir.New(reservoir.Options{
		StoreKind: *f.kind,
		DBPath:    *f.dbPath,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func runActivations(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("activations", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range activation.List() {
		fmt.Println(name)
	}
	return nil
}

func runGenerate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	rows := fs.Int("rows", 100, "number of samples")
	cols := fs.Int("cols", 10, "number of features")
	seed := fs.Int64("seed", 1, "rng seed")
	lo := fs.Float64("min", -1, "lower bound of the uniform draw")
	hi := fs.Float64("max", 1, "upper bound of the uniform draw")
	density := fs.Float64("density", 1, "fraction of entries kept nonzero")
	out := fs.String("out", "", "output CSV path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("generate requires --out")
	}

	var m mat.Matrix
	var err error
	if *density < 1 {
		m, err = dataio.RandomSparse(*seed, *rows, *cols, *density, *lo, *hi)
	} else {
		m, err = dataio.RandomMatrix(*seed, *rows, *cols, *lo, *hi)
	}
	if err != nil {
		return err
	}
	if err := dataio.WriteCSVFile(*out, m, dataio.ColumnNames("x", *cols)); err != nil {
		return err
	}
	fmt.Printf("generated rows=%d cols=%d path=%s\n", *rows, *cols, *out)
	return nil
}

func runFit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional layer config JSON path")
	input := fs.String("input", "", "training samples CSV path")
	header := fs.Bool("header", false, "input CSV has a header row")
	name := fs.String("name", "", "optional layer name")
	output := fs.String("output", "", "optional CSV path for the transformed training samples")
	nComponents := fs.Int("n-components", 500, "number of reservoir neurons")
	denseOutput := fs.Bool("dense-output", true, "always return dense projections")
	inputScaling := fs.Float64("input-scaling", 1, "scale of the input weights")
	kIn := fs.Int("k-in", 10, "input connections per neuron (-1 for dense)")
	biasScaling := fs.Float64("bias-scaling", 1, "scale of the bias weights")
	activationName := fs.String("activation", "tanh", "activation function: "+strings.Join(activation.List(), "|"))
	spectralRadius := fs.Float64("spectral-radius", 0, "target spectral radius of the recurrent weights (0 keeps them unscaled)")
	kRec := fs.Int("k-rec", 10, "recurrent connections per neuron (-1 for dense)")
	biDirectional := fs.Bool("bi-directional", false, "record the layer as bidirectional")
	seed := fs.Int64("seed", 0, "rng seed (unset draws from the clock)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return errors.New("fit requires --input")
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadOrDefaultConfig(*configPath)
	if err != nil {
		return err
	}
	err = overrideFromFlags(&cfg, setFlags, map[string]any{
		"n-components":    *nComponents,
		"dense-output":    *denseOutput,
		"input-scaling":   *inputScaling,
		"k-in":            *kIn,
		"bias-scaling":    *biasScaling,
		"activation":      *activationName,
		"spectral-radius": *spectralRadius,
		"k-rec":           *kRec,
		"bi-directional":  *biDirectional,
		"seed":            *seed,
	})
	if err != nil {
		return err
	}

	x, err := dataio.ReadCSVFile(*input, dataio.ReadOptions{Header: *header})
	if err != nil {
		return err
	}

	client, err := sf.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Fit(ctx, reservoir.FitRequest{Name: *name, Config: cfg, X: x})
	if err != nil {
		return err
	}
	if *output != "" {
		y, err := client.Transform(ctx, summary.ID, x)
		if err != nil {
			return err
		}
		if err := dataio.WriteCSVFile(*output, y, nil); err != nil {
			return err
		}
	}

	fmt.Printf("layer_id=%s name=%s n_components=%d n_features=%d spectral_estimate=%.6f scale=%.6f attempts=%d converged=%t\n",
		summary.ID,
		summary.Name,
		summary.NComponents,
		summary.NFeatures,
		summary.Spectral.Estimate,
		summary.Spectral.Scale,
		summary.Spectral.Attempts,
		summary.Spectral.Converged,
	)
	return nil
}

// runProject serves both transform and states; they differ only in the
// projection applied.
func runProject(ctx context.Context, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	id := fs.String("id", "", "layer id")
	input := fs.String("input", "", "samples CSV path")
	header := fs.Bool("header", false, "input CSV has a header row")
	output := fs.String("output", "", "output CSV path (prints a summary when empty)")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *input == "" {
		return fmt.Errorf("%s requires --id and --input", command)
	}

	x, err := dataio.ReadCSVFile(*input, dataio.ReadOptions{Header: *header})
	if err != nil {
		return err
	}
	client, err := sf.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var y mat.Matrix
	if command == "states" {
		y, err = client.States(ctx, *id, x)
	} else {
		y, err = client.Transform(ctx, *id, x)
	}
	if err != nil {
		return err
	}

	rows, cols := y.Dims()
	if *output != "" {
		if err := dataio.WriteCSVFile(*output, y, nil); err != nil {
			return err
		}
	}
	fmt.Printf("%s layer_id=%s rows=%d cols=%d output=%s\n", command, *id, rows, cols, displayPath(*output))
	return nil
}

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	id := fs.String("id", "", "layer id")
	out := fs.String("out", "", "optional JSON path for the full statistics")
	jsonOut := fs.Bool("json", false, "emit statistics as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("inspect requires --id")
	}

	client, err := sf.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	s, err := client.Inspect(ctx, *id)
	if err != nil {
		return err
	}
	if *out != "" {
		if err := stats.WriteLayerStats(*out, s); err != nil {
			return err
		}
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	printMatrixStats("feedforward", s.Feedforward)
	if s.Recurrent != nil {
		printMatrixStats("recurrent", *s.Recurrent)
	}
	measured := "n/a"
	if s.MeasuredRadius != nil {
		measured = fmt.Sprintf("%.6f", *s.MeasuredRadius)
	}
	fmt.Printf("spectral target=%.6f estimate=%.6f measured=%s attempts=%d converged=%t normalized=%t\n",
		s.Spectral.Target,
		s.Spectral.Estimate,
		measured,
		s.Spectral.Attempts,
		s.Spectral.Converged,
		s.Spectral.Normalized,
	)
	return nil
}

func printMatrixStats(name string, m stats.MatrixStats) {
	fmt.Printf("%s format=%s shape=%dx%d nnz=%s density=%.4f row_nnz=[%d,%d] range=[%.4f,%.4f] size=%s\n",
		name,
		m.Format,
		m.Rows,
		m.Cols,
		humanize.Comma(int64(m.NNZ)),
		m.Density,
		m.RowNNZMin,
		m.RowNNZMax,
		m.Values.Min,
		m.Values.Max,
		humanize.IBytes(uint64(m.Bytes)),
	)
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit layer list as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.List(ctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		fmt.Println("no layers found")
		return nil
	}
	for _, item := range items {
		fmt.Printf("layer_id=%s name=%s created_at=%s n_components=%d n_features=%d\n",
			item.ID,
			displayName(item.Name),
			item.CreatedAtUTC,
			item.NComponents,
			item.NFeatures,
		)
	}
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "layer id")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("delete requires --id")
	}

	client, err := sf.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("deleted layer_id=%s\n", *id)
	return nil
}

func displayPath(p string) string {
	if p == "" {
		return "-"
	}
	return p
}

func displayName(n string) string {
	if n == "" {
		return "-"
	}
	return n
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: reservoirctl <activations|generate|fit|transform|states|inspect|list|delete> [flags]", msg)
}
