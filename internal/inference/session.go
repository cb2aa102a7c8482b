package inference

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// ErrNotInitialized is returned when a session is requested before Initialize.
var ErrNotInitialized = errors.New("ONNX Runtime not initialized, call Initialize() first")

// Options configures the ONNX Runtime environment.
type Options struct {
	// LibraryPath is the onnxruntime shared library.
	LibraryPath string
	// CoreML appends the CoreML execution provider to every session.
	CoreML bool
}

var (
	initialized bool
	options     Options
	logger      = zap.NewNop().Sugar()
	initMu      sync.Mutex
)

// Initialize sets up the ONNX Runtime environment. Calls after the first are no-ops.
func Initialize(opts Options, log *zap.SugaredLogger) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}
	if log != nil {
		logger = log
	}

	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	options = opts
	initialized = true
	logger.Infow("onnx runtime ready", "version", ort.GetVersion(), "coreml", opts.CoreML)
	return nil
}

// Shutdown cleans up ONNX Runtime environment
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return nil
	}
	if err := ort.DestroyEnvironment(); err != nil {
		return err
	}
	initialized = false
	return nil
}

// Session wraps an ONNX Runtime inference session
type Session struct {
	session     *ort.DynamicAdvancedSession
	modelPath   string
	inputNames  []string
	outputNames []string
}

// NewSession creates an inference session for modelPath.
func NewSession(modelPath string, inputNames, outputNames []string) (*Session, error) {
	initMu.Lock()
	ready, opts := initialized, options
	initMu.Unlock()
	if !ready {
		return nil, ErrNotInitialized
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessionOpts.Destroy()

	if opts.CoreML {
		// Flag 0 = default settings, use Neural Engine + GPU
		if err := sessionOpts.AppendExecutionProviderCoreML(0); err != nil {
			logger.Warnw("coreml unavailable, using cpu", "model", modelPath, "error", err)
		} else {
			logger.Debugw("coreml provider attached", "model", modelPath)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, sessionOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", modelPath, err)
	}

	return &Session{
		session:     session,
		modelPath:   modelPath,
		inputNames:  inputNames,
		outputNames: outputNames,
	}, nil
}

// ModelPath returns the model file this session was loaded from.
func (s *Session) ModelPath() string {
	return s.modelPath
}

// Run executes inference with the given inputs
func (s *Session) Run(inputs []ort.Value, outputs []ort.Value) error {
	return s.session.Run(inputs, outputs)
}

// Destroy releases session resources
func (s *Session) Destroy() error {
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}

// Inspect reports the input and output names of a model without creating a session.
func Inspect(modelPath string) (inputs, outputs []string, err error) {
	in, out, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read model info for %s: %w", modelPath, err)
	}
	for _, i := range in {
		inputs = append(inputs, i.Name)
	}
	for _, o := range out {
		outputs = append(outputs, o.Name)
	}
	return inputs, outputs, nil
}

// CreateTensor creates a tensor with the given shape and data
func CreateTensor[T ort.TensorData](shape []int64, data []T) (*ort.Tensor[T], error) {
	return ort.NewTensor(ort.NewShape(shape...), data)
}

// CreateEmptyTensor creates a zeroed tensor for output
func CreateEmptyTensor[T ort.TensorData](shape []int64) (*ort.Tensor[T], error) {
	return ort.NewEmptyTensor[T](ort.NewShape(shape...))
}
