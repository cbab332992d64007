package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/timmy/analystai/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrOptionsMissing is returned when the options form field is absent or empty.
	ErrOptionsMissing = errors.New("options field is required")

	// ErrInvalidOptions is returned when options are not a JSON object of boolean flags.
	ErrInvalidOptions = errors.New("invalid extraction options")
)

// Unknown keys are allowed and ignored. Key names are case-sensitive.
const optionsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "extractText":      {"type": "boolean"},
    "detectCharts":     {"type": "boolean"},
    "detectTables":     {"type": "boolean"},
    "generateInsights": {"type": "boolean"},
    "vectorize":        {"type": "boolean"}
  }
}`

var compiledOptionsSchema = mustCompileSchema(optionsSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile options schema: %v", err))
	}
	return schema
}

// ParseExtractionOptions decodes the options form value.
// Missing flags default to true.
// Parameters:
//   - raw: JSON object string as sent by the client.
//
// Returns:
//   - domain.ExtractionOptions: parsed options.
//   - error: ErrOptionsMissing or ErrInvalidOptions.
func ParseExtractionOptions(raw string) (domain.ExtractionOptions, error) {
	opts := domain.DefaultExtractionOptions()
	if strings.TrimSpace(raw) == "" {
		return opts, ErrOptionsMissing
	}

	result, err := compiledOptionsSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return opts, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return opts, fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(problems, "; "))
	}

	// Keys are matched exactly; json.Unmarshal into a struct would fold case.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.DefaultExtractionOptions(), fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	flags := map[string]*bool{
		"extractText":      &opts.ExtractText,
		"detectCharts":     &opts.DetectCharts,
		"detectTables":     &opts.DetectTables,
		"generateInsights": &opts.GenerateInsights,
		"vectorize":        &opts.Vectorize,
	}
	for key, dst := range flags {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return domain.DefaultExtractionOptions(), fmt.Errorf("%w: %s: %v", ErrInvalidOptions, key, err)
		}
	}
	return opts, nil
}
