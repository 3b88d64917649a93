package asyncapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed ledger.asyncapi.yaml
var ledgerSpec []byte

const messageRefPrefix = "#/components/messages/"

// EventValidator validates CloudEvent payloads against AsyncAPI message schemas.
type EventValidator struct {
	schemas  map[string]*jsonschema.Schema
	channels map[string]string
}

// CloudEvent is the subset of the CloudEvents envelope the validator reads.
type CloudEvent struct {
	SpecVersion string      `json:"specversion"`
	Type        string      `json:"type"`
	Source      string      `json:"source"`
	Subject     string      `json:"subject,omitempty"`
	ID          string      `json:"id"`
	Data        interface{} `json:"data,omitempty"`
}

// Spec represents the parts of an AsyncAPI document the validator uses.
type Spec struct {
	AsyncAPI   string             `yaml:"asyncapi"`
	Info       Info               `yaml:"info"`
	Channels   map[string]Channel `yaml:"channels"`
	Components Components         `yaml:"components"`
}

// Info contains the AsyncAPI info section.
type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Channel is a Kafka topic and the messages carried on it.
type Channel struct {
	Address  string                       `yaml:"address"`
	Messages map[string]map[string]string `yaml:"messages"`
}

// Components holds the reusable messages. Schemas are shared through YAML anchors.
type Components struct {
	Messages map[string]Message `yaml:"messages"`
}

// Message binds a CloudEvent type to its payload schema.
type Message struct {
	Name    string                 `yaml:"name"`
	Payload map[string]interface{} `yaml:"payload"`
}

// NewLedgerEventValidator compiles the embedded stock ledger contract.
func NewLedgerEventValidator() (*EventValidator, error) {
	return NewEventValidatorFromBytes(ledgerSpec)
}

// NewEventValidator creates a validator from an AsyncAPI file.
func NewEventValidator(path string) (*EventValidator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read AsyncAPI spec: %w", err)
	}
	return NewEventValidatorFromBytes(data)
}

// NewEventValidatorFromBytes creates a validator from AsyncAPI YAML.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var spec Spec
	if err := yaml.Unmarshal(specBytes, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	v := &EventValidator{
		schemas:  make(map[string]*jsonschema.Schema),
		channels: make(map[string]string),
	}

	for key, msg := range spec.Components.Messages {
		if msg.Name == "" || msg.Payload == nil {
			return nil, fmt.Errorf("message %s needs a name and a payload", key)
		}
		schema, err := compile(compiler, "asyncapi://messages/"+key+".json", msg.Payload)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", key, err)
		}
		v.schemas[msg.Name] = schema
	}

	for name, ch := range spec.Channels {
		for _, ref := range ch.Messages {
			key := strings.TrimPrefix(ref["$ref"], messageRefPrefix)
			msg, ok := spec.Components.Messages[key]
			if !ok {
				return nil, fmt.Errorf("channel %s references unknown message %q", name, ref["$ref"])
			}
			v.channels[msg.Name] = ch.Address
		}
	}

	return v, nil
}

func compile(compiler *jsonschema.Compiler, uri string, payload map[string]interface{}) (*jsonschema.Schema, error) {
	doc, err := toJSONValue(payload)
	if err != nil {
		return nil, err
	}
	if err := compiler.AddResource(uri, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile(uri)
}

// toJSONValue round-trips v through encoding/json into the value model jsonschema expects
func toJSONValue(v interface{}) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

// Validate checks data against the schema registered for eventType.
func (v *EventValidator) Validate(eventType string, data interface{}) error {
	if eventType == "" {
		return fmt.Errorf("event type is required")
	}
	schema, ok := v.schemas[eventType]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", eventType)
	}
	if data == nil {
		return fmt.Errorf("event data is required")
	}

	doc, err := toJSONValue(data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", eventType, err)
	}
	return nil
}

// ValidateEvent validates a CloudEvent envelope and its payload.
func (v *EventValidator) ValidateEvent(event CloudEvent) error {
	if event.ID == "" || event.Source == "" {
		return fmt.Errorf("event %s is missing id or source", event.Type)
	}
	return v.Validate(event.Type, event.Data)
}

// ValidateEventJSON validates a serialized CloudEvent.
func (v *EventValidator) ValidateEventJSON(eventJSON []byte) error {
	var event CloudEvent
	if err := json.Unmarshal(eventJSON, &event); err != nil {
		return fmt.Errorf("failed to parse CloudEvent: %w", err)
	}
	return v.ValidateEvent(event)
}

// Channel returns the topic an event type is published on.
func (v *EventValidator) Channel(eventType string) (string, bool) {
	address, ok := v.channels[eventType]
	return address, ok
}

// SupportedEventTypes returns the event types with a schema, sorted.
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for eventType := range v.schemas {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}
