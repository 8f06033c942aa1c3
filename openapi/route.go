package openapi

import (
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

type RouteBuilder struct {
	openapi   *OpenAPI
	method    string
	path      string
	operation *openapi3.Operation
}

func (o *OpenAPI) Document(method, path string) *RouteBuilder {
	return &RouteBuilder{
		openapi:   o,
		method:    method,
		path:      path,
		operation: &openapi3.Operation{Responses: openapi3.NewResponses()},
	}
}

func (rb *RouteBuilder) Summary(summary string) *RouteBuilder {
	rb.operation.Summary = summary
	return rb
}

func (rb *RouteBuilder) Tags(tags ...string) *RouteBuilder {
	rb.operation.Tags = append(rb.operation.Tags, tags...)
	return rb
}

func (rb *RouteBuilder) PathParam(name, description string) *RouteBuilder {
	rb.param(name, "path", description, "integer").Required = true
	return rb
}

func (rb *RouteBuilder) QueryParam(name, description string, enum ...string) *RouteBuilder {
	param := rb.param(name, "query", description, "string")
	for _, v := range enum {
		param.Schema.Value.Enum = append(param.Schema.Value.Enum, v)
	}
	return rb
}

func (rb *RouteBuilder) QueryInt(name, description string, def int) *RouteBuilder {
	param := rb.param(name, "query", description, "integer")
	param.Schema.Value.Default = def
	return rb
}

func (rb *RouteBuilder) param(name, in, description, typ string) *openapi3.Parameter {
	param := &openapi3.Parameter{
		Name:        name,
		In:          in,
		Description: description,
		Schema:      typed(typ),
	}
	rb.operation.Parameters = append(rb.operation.Parameters, &openapi3.ParameterRef{Value: param})
	return param
}

func (rb *RouteBuilder) Body(example any, description string) *RouteBuilder {
	rb.operation.RequestBody = &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: description,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(schemaFor(example)),
		},
	}
	return rb
}

func (rb *RouteBuilder) Response(statusCode int, example any, description string) *RouteBuilder {
	response := &openapi3.Response{Description: &description}
	if example != nil {
		response.Content = openapi3.NewContentWithJSONSchemaRef(schemaFor(example))
	}
	rb.operation.Responses.Set(strconv.Itoa(statusCode), &openapi3.ResponseRef{Value: response})
	return rb
}

func (rb *RouteBuilder) Security(schemes ...string) *RouteBuilder {
	if rb.operation.Security == nil {
		rb.operation.Security = &openapi3.SecurityRequirements{}
	}
	for _, scheme := range schemes {
		*rb.operation.Security = append(*rb.operation.Security, openapi3.SecurityRequirement{scheme: []string{}})
	}
	return rb
}

func (rb *RouteBuilder) Build() {
	rb.openapi.addOperation(rb.method, rb.path, rb.operation)
}
