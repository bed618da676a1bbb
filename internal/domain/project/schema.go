package project

// Schema constrains a stored project document.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string", "pattern": "\\S"},
    "owner": {"type": "string", "minLength": 1}
  },
  "required": ["name", "owner"],
  "additionalProperties": false
}`
