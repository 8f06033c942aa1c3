// Package openapi builds the API description served at /openapi.json and
// /openapi.yaml from route registrations.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

type OpenAPI struct {
	mu   sync.RWMutex
	spec *openapi3.T
}

func New(title, version string) *OpenAPI {
	return &OpenAPI{
		spec: &openapi3.T{
			OpenAPI: "3.0.3",
			Info: &openapi3.Info{
				Title:   title,
				Version: version,
			},
			Paths: openapi3.NewPaths(),
			Components: &openapi3.Components{
				SecuritySchemes: make(openapi3.SecuritySchemes),
			},
		},
	}
}

func (o *OpenAPI) Description(desc string) *OpenAPI {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spec.Info.Description = desc
	return o
}

func (o *OpenAPI) Server(url, description string) *OpenAPI {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spec.Servers = append(o.spec.Servers, &openapi3.Server{URL: url, Description: description})
	return o
}

func (o *OpenAPI) Tag(name, description string) *OpenAPI {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spec.Tags = append(o.spec.Tags, &openapi3.Tag{Name: name, Description: description})
	return o
}

// CookieAuth declares a session cookie security scheme under name.
func (o *OpenAPI) CookieAuth(name, cookieName, description string) *OpenAPI {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spec.Components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:        "apiKey",
			In:          "cookie",
			Name:        cookieName,
			Description: description,
		},
	}
	return o
}

func (o *OpenAPI) Spec() *openapi3.T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.spec
}

func (o *OpenAPI) JSON() ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return json.MarshalIndent(o.spec, "", "  ")
}

func (o *OpenAPI) YAML() ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	intermediate, err := o.spec.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(intermediate)
}

func (o *OpenAPI) JSONHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := o.JSON()
		if err != nil {
			return err
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}

func (o *OpenAPI) YAMLHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := o.YAML()
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "application/yaml", data)
	}
}

func (o *OpenAPI) addOperation(method, path string, op *openapi3.Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()

	openAPIPath := echoPathToOpenAPI(path)
	item := o.spec.Paths.Find(openAPIPath)
	if item == nil {
		item = &openapi3.PathItem{}
		o.spec.Paths.Set(openAPIPath, item)
	}
	item.SetOperation(strings.ToUpper(method), op)
}

func echoPathToOpenAPI(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			parts[i] = "{" + part[1:] + "}"
		}
	}
	return strings.Join(parts, "/")
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	rawJSONType = reflect.TypeOf(json.RawMessage{})
)

// schemaFor derives an inline schema from an example value. Struct fields
// follow their json tags; pointers become nullable.
func schemaFor(example any) *openapi3.SchemaRef {
	if example == nil {
		return objectSchema()
	}
	return schemaFromType(reflect.TypeOf(example), map[reflect.Type]bool{})
}

func schemaFromType(t reflect.Type, visiting map[reflect.Type]bool) *openapi3.SchemaRef {
	switch {
	case t == timeType:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}}
	case t == rawJSONType:
		return objectSchema()
	}

	switch t.Kind() {
	case reflect.Pointer:
		ref := schemaFromType(t.Elem(), visiting)
		ref.Value.Nullable = true
		return ref
	case reflect.String:
		return typed("string")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return typed("integer")
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		ref := typed("integer")
		ref.Value.Min = ptr(0.0)
		return ref
	case reflect.Float32, reflect.Float64:
		return typed("number")
	case reflect.Bool:
		return typed("boolean")
	case reflect.Slice, reflect.Array:
		ref := typed("array")
		ref.Value.Items = schemaFromType(t.Elem(), visiting)
		return ref
	case reflect.Map:
		ref := objectSchema()
		ref.Value.AdditionalProperties = openapi3.AdditionalProperties{Schema: schemaFromType(t.Elem(), visiting)}
		return ref
	case reflect.Struct:
		return structSchema(t, visiting)
	default:
		return objectSchema()
	}
}

func structSchema(t reflect.Type, visiting map[reflect.Type]bool) *openapi3.SchemaRef {
	ref := objectSchema()
	if visiting[t] {
		return ref
	}
	visiting[t] = true
	defer delete(visiting, t)

	ref.Value.Properties = make(openapi3.Schemas)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}

		prop := schemaFromType(field.Type, visiting)
		if doc := field.Tag.Get("doc"); doc != "" {
			prop.Value.Description = doc
		}
		if ex := field.Tag.Get("example"); ex != "" {
			prop.Value.Example = ex
		}
		ref.Value.Properties[name] = prop

		if !strings.Contains(opts, "omitempty") {
			ref.Value.Required = append(ref.Value.Required, name)
		}
	}
	return ref
}

func typed(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{name}}}
}

func objectSchema() *openapi3.SchemaRef {
	return typed("object")
}

func ptr[T any](v T) *T {
	return &v
}
