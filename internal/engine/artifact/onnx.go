package artifact

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

const (
	onnxInput  = "float_input"
	onnxLabel  = "label"
	onnxScores = "probabilities"
)

// ONNXClassifier runs a classifier exported with skl2onnx: a float_input
// [N, d] tensor in, an int64 label [N] tensor out.
type ONNXClassifier struct {
	session   *ort.DynamicAdvancedSession
	inputName string
	dim       int64
	classes   int
}

// LoadONNX creates an inference session for modelPath, loading the runtime
// from libPath on first use.
func LoadONNX(modelPath, libPath string) (*ONNXClassifier, error) {
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	inputName, dim, err := featureInput(inputs)
	if err != nil {
		return nil, err
	}

	hasLabel, classes := false, 0
	for _, out := range outputs {
		switch out.Name {
		case onnxLabel:
			hasLabel = true
		case onnxScores:
			if len(out.Dimensions) == 2 && out.Dimensions[1] > 0 {
				classes = int(out.Dimensions[1])
			}
		}
	}
	if !hasLabel {
		return nil, fmt.Errorf("onnx: model missing output %q", onnxLabel)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{onnxLabel},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXClassifier{
		session:   session,
		inputName: inputName,
		dim:       dim,
		classes:   classes,
	}, nil
}

// featureInput picks float_input, or the only input when the export used a
// different name, and returns its feature dimension.
func featureInput(inputs []ort.InputOutputInfo) (string, int64, error) {
	var info *ort.InputOutputInfo
	for i := range inputs {
		if inputs[i].Name == onnxInput {
			info = &inputs[i]
			break
		}
	}
	if info == nil && len(inputs) == 1 {
		info = &inputs[0]
	}
	if info == nil {
		return "", 0, fmt.Errorf("onnx: model missing required input %q", onnxInput)
	}
	if len(info.Dimensions) != 2 || info.Dimensions[1] <= 0 {
		return "", 0, fmt.Errorf("onnx: expected [N, d] input with fixed d, got %v", info.Dimensions)
	}
	return info.Name, info.Dimensions[1], nil
}

// Dim returns the number of input features.
func (c *ONNXClassifier) Dim() int { return int(c.dim) }

// Classes returns the class count when the model exposes a probabilities
// tensor, else 0.
func (c *ONNXClassifier) Classes() int { return c.classes }

// Predict runs a single inference call.
func (c *ONNXClassifier) Predict(vec FeatureVector) (int, error) {
	if int64(vec.Dim) != c.dim {
		return 0, fmt.Errorf("onnx: vector has %d features, want %d", vec.Dim, c.dim)
	}

	in, err := ort.NewTensor(ort.NewShape(1, c.dim), vec.Dense())
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create %s tensor: %w", c.inputName, err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := c.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}
	return int(out.GetData()[0]), nil
}

// Close releases the ONNX session resources.
func (c *ONNXClassifier) Close() error {
	return c.session.Destroy()
}
