package schema

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"starforge-server/internal/export"
)

// Schema ids accepted by Validate.
const (
	GalaxyChartID  = "galaxy_chart"
	ScenarioInfoID = "scenario_info"
	ModMetaDataID  = "mod_meta_data"
)

// Validator checks export documents against schemas reflected from the
// export types. It is a supplementary gate: a missing schema id is not
// an error, the invariant engine remains authoritative.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

func NewValidator() *Validator {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}

	return &Validator{
		schemas: map[string]*jsonschema.Schema{
			GalaxyChartID:  reflector.Reflect(new(export.GalaxyChart)),
			ScenarioInfoID: reflector.Reflect(new(export.ScenarioInfo)),
			ModMetaDataID:  reflector.Reflect(new(export.ModMetaData)),
		},
	}
}

// Validate checks a decoded JSON document against the named schema and
// returns every violation found. An unknown schema id yields no errors.
func (v *Validator) Validate(document map[string]interface{}, schemaID string) []error {
	schema, ok := v.schemas[schemaID]
	if !ok {
		return nil
	}

	root := resolveRoot(schema)
	if root == nil {
		return nil
	}

	return checkObject(document, root, schemaID)
}

// resolveRoot follows the reflector's top-level $ref into Definitions.
func resolveRoot(schema *jsonschema.Schema) *jsonschema.Schema {
	if schema.Ref == "" {
		return schema
	}

	name := strings.TrimPrefix(schema.Ref, "#/definitions/")
	if def, ok := schema.Definitions[name]; ok {
		return def
	}
	return nil
}

func checkObject(document map[string]interface{}, s *jsonschema.Schema, path string) []error {
	var errs []error

	for _, required := range s.Required {
		if _, present := document[required]; !present {
			errs = append(errs, fmt.Errorf("%s: required property %q is missing", path, required))
		}
	}

	if s.Properties == nil {
		return errs
	}

	for _, key := range s.Properties.Keys() {
		value, present := document[key]
		if !present {
			continue
		}

		raw, _ := s.Properties.Get(key)
		prop, ok := raw.(*jsonschema.Schema)
		if !ok || prop.Type == "" {
			continue
		}

		if err := checkValueType(value, prop.Type, path+"."+key); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func checkValueType(value interface{}, want string, path string) error {
	if value == nil {
		return nil
	}

	ok := false
	switch want {
	case "string":
		_, ok = value.(string)
	case "integer", "number":
		// encoding/json decodes every JSON number as float64.
		_, ok = value.(float64)
	case "boolean":
		_, ok = value.(bool)
	case "array":
		_, ok = value.([]interface{})
	case "object":
		_, ok = value.(map[string]interface{})
	default:
		return nil
	}

	if !ok {
		return fmt.Errorf("%s: expected %s, got %T", path, want, value)
	}
	return nil
}
