package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/raster"
)

// BuildJobJSONSchema returns the JSON-Schema for a job file as a generic map.
func BuildJobJSONSchema() map[string]any {
	pages := map[string]any{
		"oneOf": []any{
			map[string]any{"type": "string"},
			map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "integer", "minimum": 0},
			},
		},
	}
	thumb := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"width":  map[string]any{"type": "integer", "minimum": 1},
			"height": map[string]any{"type": "integer", "minimum": 1},
			"fit":    map[string]any{"type": "boolean"},
		},
		"required": []string{"width", "height"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"source":        map[string]any{"type": "string", "minLength": 1},
			"output_dir":    map[string]any{"type": "string", "minLength": 1},
			"pages":         pages,
			"dpi":           map[string]any{"type": "integer", "minimum": 1},
			"encoding":      map[string]any{"type": "string", "enum": encodingEnum()},
			"quality":       map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
			"interpolation": map[string]any{"type": "string", "enum": interpolationEnum()},
			"thumbnail":     thumb,
		},
		"required": []string{"source", "output_dir"},
	}
}

func encodingEnum() []string {
	names := constants.EncodingNames()
	return append(names, "jpg", "tif")
}

// interpolationEnum adds the aliases ParseInterpolation accepts.
func interpolationEnum() []string {
	return append(raster.Interpolations(), "lanczos")
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func jobSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(BuildJobJSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("job.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("job.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}
