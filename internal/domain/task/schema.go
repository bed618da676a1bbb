package task

// Schema constrains a stored task document.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string", "pattern": "\\S"},
    "status": {"enum": ["To Do", "In Progress", "Completed"]},
    "projectId": {"type": "string", "minLength": 1}
  },
  "required": ["name", "status", "projectId"],
  "additionalProperties": false
}`
