package artifact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/hejijunhao/teller/internal/model"
)

// tensor is one F32 tensor read from a safetensors file.
type tensor struct {
	shape []int
	data  []float32
}

// readSafetensors decodes every F32 tensor named in names from path.
func readSafetensors(path string, names ...string) (map[string]tensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: %w", err)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("safetensors: file too small: %d bytes", len(data))
	}

	// 8-byte LE uint64 header length, then JSON.
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("safetensors: header length %d exceeds file size", headerLen)
	}
	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &header); err != nil {
		return nil, fmt.Errorf("safetensors: failed to parse header: %w", err)
	}
	base := int(8 + headerLen)

	out := make(map[string]tensor, len(names))
	for _, name := range names {
		raw, ok := header[name]
		if !ok {
			return nil, fmt.Errorf("safetensors: tensor %q not found in header", name)
		}
		var meta struct {
			Dtype       string `json:"dtype"`
			Shape       []int  `json:"shape"`
			DataOffsets [2]int `json:"data_offsets"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q metadata: %w", name, err)
		}
		if meta.Dtype != "F32" {
			return nil, fmt.Errorf("safetensors: tensor %q: expected dtype F32, got %s", name, meta.Dtype)
		}

		n := 1
		for _, d := range meta.Shape {
			if d < 0 {
				return nil, fmt.Errorf("safetensors: tensor %q: negative dimension in shape %v", name, meta.Shape)
			}
			if d > 0 && n > len(data)/4/d {
				return nil, fmt.Errorf("safetensors: tensor %q: shape %v exceeds file size %d", name, meta.Shape, len(data))
			}
			n *= d
		}
		if meta.DataOffsets[0] < 0 || meta.DataOffsets[0] > meta.DataOffsets[1] {
			return nil, fmt.Errorf("safetensors: tensor %q: invalid data offsets %v", name, meta.DataOffsets)
		}
		start := base + meta.DataOffsets[0]
		end := base + meta.DataOffsets[1]
		if end-start != n*4 {
			return nil, fmt.Errorf("safetensors: tensor %q: data size %d doesn't match shape %v", name, end-start, meta.Shape)
		}
		if start < base || end > len(data) {
			return nil, fmt.Errorf("safetensors: tensor %q: data range [%d:%d] exceeds file size %d", name, start, end, len(data))
		}

		values := make([]float32, n)
		for i := range values {
			bits := binary.LittleEndian.Uint32(data[start+i*4 : start+i*4+4])
			values[i] = math.Float32frombits(bits)
		}
		out[name] = tensor{shape: meta.Shape, data: values}
	}
	return out, nil
}

// LoadLinearSafetensors reads a linear classifier stored as a "coef"
// [k, d] and an "intercept" [k] tensor.
func LoadLinearSafetensors(path string, kind model.Variant) (*Linear, error) {
	ts, err := readSafetensors(path, "coef", "intercept")
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	coefT, interT := ts["coef"], ts["intercept"]
	if len(coefT.shape) != 2 {
		return nil, fmt.Errorf("linear: expected 2D coef, got shape %v", coefT.shape)
	}
	if len(interT.shape) != 1 {
		return nil, fmt.Errorf("linear: expected 1D intercept, got shape %v", interT.shape)
	}

	rows, dim := coefT.shape[0], coefT.shape[1]
	coef := make([][]float64, rows)
	for r := range coef {
		coef[r] = widen(coefT.data[r*dim : (r+1)*dim])
	}
	return NewLinear(kind, nil, coef, widen(interT.data))
}

func widen(src []float32) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}
