package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/project"
	"github.com/ganot/taskboard/internal/domain/task"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var schemas = map[string]*jsonschema.Schema{
	project.Collection: mustCompile(project.Collection, project.Schema),
	task.Collection:    mustCompile(task.Collection, task.Schema),
}

func mustCompile(name, schema string) *jsonschema.Schema {
	url := "mem://schemas/" + name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("adding %s schema: %v", name, err))
	}
	return compiler.MustCompile(url)
}

// validateFields checks a complete document against its collection schema.
func validateFields(collection string, fields docstore.Fields) error {
	schema, ok := schemas[collection]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("%w: %v", ErrInvalidFields, err)
		}
		var msgs []string
		collectSchemaErrors(&msgs, ve)
		return fmt.Errorf("%w: %s", ErrInvalidFields, strings.Join(msgs, "; "))
	}
	return nil
}

func collectSchemaErrors(msgs *[]string, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		loc := strings.TrimPrefix(err.InstanceLocation, "/")
		if loc == "" {
			*msgs = append(*msgs, err.Message)
		} else {
			*msgs = append(*msgs, loc+": "+err.Message)
		}
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(msgs, cause)
	}
}
