package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/xlformula/pkg/types"
)

//go:embed vars.schema.json
var varsSchemaJSON string

const varsSchemaURL = "xlformula://vars.schema.json"

var varsSchema = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(varsSchemaURL, strings.NewReader(varsSchemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(varsSchemaURL)
}()

// dateLayouts are accepted in {"date": ...} bindings.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func loadVarsFile(path string) (*types.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variables: %w", err)
	}
	ctx, err := parseVars(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ctx, nil
}

// parseVars decodes a YAML or JSON document of bindings, validates it
// against the variables schema and converts it to a context. Keys are
// bound in document order.
func parseVars(data []byte) (*types.Context, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode variables: %w", err)
	}
	ctx := types.NewContext()
	if len(root.Content) == 0 {
		return ctx, nil
	}
	var doc any
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode variables: %w", err)
	}
	inst, err := jsonInstance(doc)
	if err != nil {
		return nil, err
	}
	if err := varsSchema.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid variables: %w", err)
	}

	obj := inst.(map[string]any)
	mapping := root.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := mapping.Content[i].Value
		v, err := toValue(obj[name])
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		ctx.Set(name, v)
	}
	return ctx, nil
}

// jsonInstance normalises a YAML document to the shapes encoding/json
// produces, which is what the schema validator expects.
func jsonInstance(doc any) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("variables are not JSON compatible: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var inst any
	if err := dec.Decode(&inst); err != nil {
		return nil, fmt.Errorf("decode variables: %w", err)
	}
	return inst, nil
}

// toValue converts one validated binding.
func toValue(x any) (types.Value, error) {
	switch v := x.(type) {
	case nil:
		return types.Empty(), nil
	case bool:
		return types.NewBoolean(v), nil
	case string:
		return types.NewText(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return types.Value{}, fmt.Errorf("number %s: %w", v, err)
		}
		return types.NewNumber(f), nil
	case []any:
		items := make([]types.Value, 0, len(v))
		for _, it := range v {
			iv, err := toValue(it)
			if err != nil {
				return types.Value{}, err
			}
			items = append(items, iv)
		}
		return types.NewArray(items...), nil
	case map[string]any:
		if s, ok := v["date"].(string); ok {
			return parseDateValue(s)
		}
		if s, ok := v["error"].(string); ok {
			if e, ok := types.ParseErrorType(s); ok {
				return types.NewError(e), nil
			}
			return types.Value{}, fmt.Errorf("unknown error code %q", s)
		}
	}
	return types.Value{}, fmt.Errorf("unsupported value %v", x)
}

func parseDateValue(s string) (types.Value, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.NewDate(t), nil
		}
	}
	return types.Value{}, fmt.Errorf("invalid date %q", s)
}

// parseAssignment reads a --set NAME=VALUE flag. VALUE is a number,
// TRUE or FALSE, an error literal such as #N/A, or else text.
func parseAssignment(s string) (string, types.Value, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", types.Value{}, fmt.Errorf("invalid --set %q: want NAME=VALUE", s)
	}
	if n, ok := types.ParseNumber(raw); ok {
		return name, types.NewNumber(n), nil
	}
	switch strings.ToUpper(raw) {
	case "TRUE":
		return name, types.NewBoolean(true), nil
	case "FALSE":
		return name, types.NewBoolean(false), nil
	}
	if e, ok := types.ParseErrorType(raw); ok {
		return name, types.NewError(e), nil
	}
	return name, types.NewText(raw), nil
}
