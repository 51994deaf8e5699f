package swaggerkit

import (
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	pnet "uwhatgov/internal/platform/net"

	"github.com/invopop/jsonschema"
)

// BasePath is where the documented routes are mounted
const BasePath = "/api/v1"

// Op documents one route, Path is relative to BasePath in chi syntax
type Op struct {
	Method  string
	Path    string
	Tag     string
	Summary string
	Query   []Param
	Header  []Param

	// Body and Response are zero values of the request and data types, nil for none
	Body     any
	Response any

	// Stream marks a text/event-stream response instead of a JSON envelope
	Stream bool
}

// Param is a query or header parameter
type Param struct {
	Name     string
	Type     string
	Required bool
	About    string
}

var (
	mu  sync.Mutex
	ops = map[string]Op{}
)

// Register adds ops to the document, a later op for the same method and path wins
func Register(list ...Op) {
	mu.Lock()
	defer mu.Unlock()
	for _, op := range list {
		ops[strings.ToUpper(op.Method)+" "+op.Path] = op
	}
}

// Reset clears the registered ops for tests
func Reset() {
	mu.Lock()
	ops = map[string]Op{}
	mu.Unlock()
}

var pathParam = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)

// Doc renders the registered ops as an OpenAPI 3.0 document
func Doc(title, version string) map[string]any {
	mu.Lock()
	keys := slices.Sorted(maps.Keys(ops))
	list := make([]Op, 0, len(keys))
	for _, k := range keys {
		list = append(list, ops[k])
	}
	mu.Unlock()

	paths := map[string]any{}
	for _, op := range list {
		p := pathParam.ReplaceAllString(op.Path, "{$1}")
		item, _ := paths[p].(map[string]any)
		if item == nil {
			item = map[string]any{}
			paths[p] = item
		}
		item[strings.ToLower(op.Method)] = operation(op)
	}
	return map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": title, "version": version},
		"servers": []any{map[string]any{"url": BasePath}},
		"paths":   paths,
		"components": map[string]any{
			"schemas": map[string]any{"Envelope": schemaOf(pnet.Wire{})},
		},
	}
}

func operation(op Op) map[string]any {
	var params []any
	for _, m := range pathParam.FindAllStringSubmatch(op.Path, -1) {
		params = append(params, param("path", Param{Name: m[1], Type: "string", Required: true}))
	}
	for _, q := range op.Query {
		params = append(params, param("query", q))
	}
	for _, h := range op.Header {
		params = append(params, param("header", h))
	}

	envelope := map[string]any{"$ref": "#/components/schemas/Envelope"}
	ok := map[string]any{"description": "ok"}
	switch {
	case op.Stream:
		ok["content"] = map[string]any{"text/event-stream": map[string]any{"schema": map[string]any{"type": "string"}}}
	case op.Response != nil:
		ok["content"] = jsonContent(map[string]any{"allOf": []any{
			envelope,
			map[string]any{"type": "object", "properties": map[string]any{"data": schemaOf(op.Response)}},
		}})
	default:
		ok["content"] = jsonContent(envelope)
	}

	out := map[string]any{
		"tags":    []string{op.Tag},
		"summary": op.Summary,
		"responses": map[string]any{
			"200":     ok,
			"default": map[string]any{"description": "error envelope", "content": jsonContent(envelope)},
		},
	}
	if len(params) > 0 {
		out["parameters"] = params
	}
	if op.Body != nil {
		out["requestBody"] = map[string]any{"required": true, "content": jsonContent(schemaOf(op.Body))}
	}
	return out
}

func param(in string, p Param) map[string]any {
	typ := p.Type
	if typ == "" {
		typ = "string"
	}
	out := map[string]any{"name": p.Name, "in": in, "required": p.Required, "schema": map[string]any{"type": typ}}
	if p.About != "" {
		out["description"] = p.About
	}
	return out
}

func jsonContent(schema any) map[string]any {
	return map[string]any{"application/json": map[string]any{"schema": schema}}
}

// schemaOf reflects v inline, without the draft marker OpenAPI 3.0 rejects
func schemaOf(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{DoNotReference: true, Anonymous: true}
	var s *jsonschema.Schema
	if t := reflect.TypeOf(v); t.Kind() == reflect.Slice {
		s = &jsonschema.Schema{Type: "array", Items: r.ReflectFromType(t.Elem())}
		s.Items.Version = ""
		return s
	}
	s = r.Reflect(v)
	s.Version = ""
	return s
}
