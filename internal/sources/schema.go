package sources

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const launchSchemaURL = "https://launch-registry-server/schema/launches.json"

//go:embed schema/launches.schema.json
var launchSchemaJSON []byte

var (
	launchSchemaOnce sync.Once
	launchSchema     *jsonschema.Schema
	launchSchemaErr  error
)

func compiledLaunchSchema() (*jsonschema.Schema, error) {
	launchSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(launchSchemaJSON))
		if err != nil {
			launchSchemaErr = fmt.Errorf("failed to parse launch schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(launchSchemaURL, doc); err != nil {
			launchSchemaErr = fmt.Errorf("failed to add launch schema: %w", err)
			return
		}
		launchSchema, launchSchemaErr = c.Compile(launchSchemaURL)
	})
	return launchSchema, launchSchemaErr
}

// validatePayload checks data against the upstream launch schema
func validatePayload(data []byte) error {
	sch, err := compiledLaunchSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	return sch.Validate(inst)
}
