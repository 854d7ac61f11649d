package rest

import (
	"encoding/json"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// EnvelopeVersion identifies the error body contract understood by Message.
const EnvelopeVersion = "v1"

// envelopeSchema describes the API error body:
//
//	{"statusCode": 404, "message": ["..."] | "...", "error": "Not Found"}
var envelopeSchema = func() *openapi3.Schema {
	message := openapi3.NewOneOfSchema(
		openapi3.NewStringSchema(),
		openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()).WithMinItems(1),
	)
	s := openapi3.NewObjectSchema().
		WithProperty("message", message).
		WithProperty("statusCode", openapi3.NewIntegerSchema()).
		WithProperty("error", openapi3.NewStringSchema())
	s.Required = []string{"message"}
	return s
}()

// Message extracts the human-readable message of an error body.
// It reports false when the body does not match the envelope or carries an
// empty message. It never panics on malformed input.
func Message(body []byte) (string, bool) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}
	if err := envelopeSchema.VisitJSON(doc); err != nil {
		return "", false
	}

	obj, _ := doc.(map[string]any)
	var msg string
	switch m := obj["message"].(type) {
	case string:
		msg = m
	case []any:
		msg, _ = m[0].(string)
	}
	msg = strings.TrimSpace(msg)
	return msg, msg != ""
}
