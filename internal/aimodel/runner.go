package aimodel

import (
	"bytes"
	"context"
	"earthslight/server/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultModelType is reported when the external model does not name itself
const DefaultModelType = "XGBoost (Python)"

// FailureReason classifies why the external model could not be used
type FailureReason string

const (
	ReasonTimeout         FailureReason = "timeout"
	ReasonSpawnFailed     FailureReason = "spawn_failed"
	ReasonNonZeroExit     FailureReason = "non_zero_exit"
	ReasonMalformedOutput FailureReason = "malformed_output"
	ReasonNotLoaded       FailureReason = "not_loaded"
	ReasonCanceled        FailureReason = "canceled"
)

// StrategyError is returned for every failure of the external model
type StrategyError struct {
	Reason FailureReason
	Stderr string
	Err    error
}

func (e *StrategyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("external model: %s", e.Reason)
	}
	return fmt.Sprintf("external model: %s: %v", e.Reason, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from err. Errors that did not come
// from a Runner are reported as malformed output.
func ReasonOf(err error) FailureReason {
	var se *StrategyError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ReasonMalformedOutput
}

// Options configures a Runner
type Options struct {
	Interpreter    string
	Dir            string
	Script         string
	ModelFile      string
	PredictTimeout time.Duration
	LoadTimeout    time.Duration
}

// Runner executes the Python price model as a child process
type Runner struct {
	logger         *logrus.Logger
	interpreter    string
	workDir        string
	script         string
	modelFile      string
	predictTimeout time.Duration
	loadTimeout    time.Duration
}

// NewRunner creates a new runner
func NewRunner(opts Options, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	workDir, err := filepath.Abs(opts.Dir)
	if err != nil {
		logger.WithError(err).Error("Failed to get absolute path to model directory")
		workDir = opts.Dir
	}

	return &Runner{
		logger:         logger,
		interpreter:    opts.Interpreter,
		workDir:        workDir,
		script:         opts.Script,
		modelFile:      opts.ModelFile,
		predictTimeout: opts.PredictTimeout,
		loadTimeout:    opts.LoadTimeout,
	}
}

// ModelFile returns the absolute path of the model artifact
func (r *Runner) ModelFile() string {
	return filepath.Join(r.workDir, r.modelFile)
}

// Probe checks that the model artifact exists and that the script can load it
func (r *Runner) Probe(ctx context.Context) error {
	if _, err := os.Stat(r.ModelFile()); err != nil {
		return &StrategyError{Reason: ReasonNotLoaded, Err: err}
	}

	if _, err := r.run(ctx, r.loadTimeout, "load"); err != nil {
		return err
	}

	r.logger.WithField("model_file", r.ModelFile()).Info("External model loaded")
	return nil
}

// Predict asks the external model for a price. location is passed through
// as the last positional argument.
func (r *Runner) Predict(ctx context.Context, in models.PropertyInput, location string) (*models.PredictionResult, error) {
	out, err := r.run(ctx, r.predictTimeout,
		"predict",
		strconv.Itoa(in.Floors),
		strconv.FormatFloat(math.Round(in.Area), 'f', 0, 64),
		strconv.Itoa(in.Bedrooms),
		strconv.Itoa(in.Bathrooms),
		strconv.Itoa(in.Age),
		location,
	)
	if err != nil {
		return nil, err
	}

	result, err := decodeResult(out)
	if err != nil {
		return nil, &StrategyError{Reason: ReasonMalformedOutput, Err: err}
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.interpreter, append([]string{r.script}, args...)...)
	cmd.Dir = r.workDir
	// Children of the script may hold the pipes open after it is killed.
	cmd.WaitDelay = 500 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		reason := ReasonTimeout
		if errors.Is(ctxErr, context.Canceled) {
			reason = ReasonCanceled
		}
		return nil, &StrategyError{Reason: reason, Stderr: stderr.String(), Err: ctxErr}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logger.WithFields(logrus.Fields{
				"command":   args[0],
				"exit_code": exitErr.ExitCode(),
				"stderr":    strings.TrimSpace(stderr.String()),
			}).Warn("External model exited with error")
			return nil, &StrategyError{Reason: ReasonNonZeroExit, Stderr: stderr.String(), Err: err}
		}
		return nil, &StrategyError{Reason: ReasonSpawnFailed, Err: err}
	}

	return stdout.Bytes(), nil
}

type rawFactor struct {
	Name        string          `json:"name"`
	Impact      json.RawMessage `json:"impact"`
	Description string          `json:"description"`
}

type rawResult struct {
	CurrentPrice  *float64    `json:"currentPrice"`
	Confidence    float64     `json:"confidence"`
	Factors       []rawFactor `json:"factors"`
	MarketTrend   string      `json:"marketTrend"`
	LocationScore float64     `json:"locationScore"`
	ModelType     string      `json:"modelType"`
	BaseGrowth    float64     `json:"baseGrowth"`
}

// decodeResult reads the JSON object printed by the script. The script logs
// plain lines before the object and may indent it over several lines.
func decodeResult(out []byte) (*models.PredictionResult, error) {
	offset := jsonStart(out)
	if offset < 0 {
		return nil, errors.New("no JSON object in output")
	}

	var raw rawResult
	if err := json.NewDecoder(bytes.NewReader(out[offset:])).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}

	if raw.CurrentPrice == nil || math.IsNaN(*raw.CurrentPrice) || *raw.CurrentPrice <= 0 {
		return nil, errors.New("missing or non-positive currentPrice")
	}
	if math.IsInf(*raw.CurrentPrice, 0) || *raw.CurrentPrice >= math.MaxInt64 {
		return nil, fmt.Errorf("currentPrice %v out of range", *raw.CurrentPrice)
	}
	if raw.Confidence < 0 || raw.Confidence > 100 {
		return nil, fmt.Errorf("confidence %v out of range", raw.Confidence)
	}
	switch raw.MarketTrend {
	case models.TrendIncreasing, models.TrendStable, models.TrendDecreasing:
	default:
		return nil, fmt.Errorf("unknown market trend %q", raw.MarketTrend)
	}

	factors := make([]models.Factor, 0, len(raw.Factors))
	for _, f := range raw.Factors {
		impact, err := normaliseImpact(f.Impact)
		if err != nil {
			return nil, fmt.Errorf("factor %q: %w", f.Name, err)
		}
		factors = append(factors, models.Factor{Name: f.Name, Impact: impact, Description: f.Description})
	}

	modelType := raw.ModelType
	if modelType == "" {
		modelType = DefaultModelType
	}

	return &models.PredictionResult{
		CurrentPrice:  int64(math.Round(*raw.CurrentPrice)),
		Confidence:    int(math.Round(raw.Confidence)),
		Factors:       factors,
		ModelType:     modelType,
		MarketTrend:   raw.MarketTrend,
		LocationScore: min(100, max(70, int(math.Round(raw.LocationScore)))),
		BaseGrowth:    raw.BaseGrowth,
	}, nil
}

func jsonStart(out []byte) int {
	for offset := 0; offset < len(out); {
		end := bytes.IndexByte(out[offset:], '\n')
		line := out[offset:]
		if end >= 0 {
			line = line[:end]
		}
		if bytes.HasPrefix(bytes.TrimSpace(line), []byte("{")) {
			return offset
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return -1
}

// normaliseImpact accepts a JSON number or numeric string
func normaliseImpact(raw json.RawMessage) (string, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', 2, 64), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("impact is neither number nor string")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("impact %q is not numeric", s)
	}
	return strconv.FormatFloat(n, 'f', 2, 64), nil
}
