// Package request loads and validates analysis requests from JSON or YAML files
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/parser"
)

// ErrInvalidRequest is wrapped by every structural request error
var ErrInvalidRequest = errors.New("invalid analysis request")

// Format is a request file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the decoder from the file extension. Unknown extensions are read as YAML,
// which also accepts JSON documents.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads, decodes and validates a request file
func Load(path string) (*models.AnalysisRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request %s: %w", path, err)
	}
	req, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}

// Decode parses and validates a request document
func Decode(data []byte, format Format) (*models.AnalysisRequest, error) {
	var req models.AnalysisRequest
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidRequest, format)
	}

	if err := Validate(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate checks the request's struct constraints and that it carries facts
func Validate(req *models.AnalysisRequest) error {
	if err := validator.New().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q constraint", ErrInvalidRequest, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(req.Facts) == 0 && len(req.RawStatements) == 0 {
		return fmt.Errorf("%w: no facts or raw statements", ErrInvalidRequest)
	}
	for name, amount := range req.CommittedFacilities {
		if amount < 0 {
			return fmt.Errorf("%w: committed facility %q is negative", ErrInvalidRequest, name)
		}
	}
	return nil
}

// Facts returns the request's facts in base units. Raw statement rows are parsed
// and scaled first, so an explicit fact for the same key and period replaces the parsed one.
func Facts(req *models.AnalysisRequest) []models.Fact {
	facts := parser.BuildFacts(req.RawStatements, req.Scale)
	return append(facts, req.Facts...)
}
