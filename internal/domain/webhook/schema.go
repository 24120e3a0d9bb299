package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const envelopeSchemaURL = "https://finsync.local/schemas/webhook-envelope.json"

const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["event", "eventId"],
  "properties": {
    "event":          {"type": "string", "minLength": 1},
    "eventId":        {"type": "string", "minLength": 1},
    "itemId":         {"type": "string"},
    "id":             {"type": "string"},
    "accountId":      {"type": "string"},
    "transactionIds": {"type": "array", "items": {"type": "string"}},
    "data":           {"type": "object"}
  }
}`

// Decoder validates raw webhook bodies against the envelope schema and decodes them.
type Decoder struct {
	schema *jsonschema.Schema
}

// NewDecoder compiles the envelope schema.
func NewDecoder() (*Decoder, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse envelope schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(envelopeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add envelope schema: %w", err)
	}
	sch, err := c.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile envelope schema: %w", err)
	}
	return &Decoder{schema: sch}, nil
}

// Decode validates body and returns the envelope. Every failure wraps ErrInvalidEnvelope.
func (d *Decoder) Decode(body []byte) (*Envelope, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := d.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}
