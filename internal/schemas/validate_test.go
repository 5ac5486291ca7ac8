package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["title", "issue_date"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"issue_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
	}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateJSON_ValidDocument(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", testSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"title": "Data Science", "issue_date": "2023-05-12"}`)

	assert.NoError(t, ValidateJSON(schemaPath, jsonPath))
}

func TestValidateJSON_MissingField(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", testSchema)
	jsonPath := writeFile(t, dir, "doc.json", `{"title": "Data Science"}`)

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Errors)
}

func TestValidateJSON_NonExistentFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.json", testSchema)

	err := ValidateJSON(filepath.Join(dir, "missing.json"), schemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = ValidateJSON(schemaPath, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSONString(t *testing.T) {
	assert.NoError(t, ValidateJSONString(testSchema, `{"title": "x", "issue_date": "2024-01-02"}`))

	err := ValidateJSONString(testSchema, `{"title": "x", "issue_date": "12/05/2023"}`)
	require.Error(t, err)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "issue_date")
}

func TestValidateJSONString_BadSchema(t *testing.T) {
	err := ValidateJSONString(`{ not a schema`, `{}`)
	require.Error(t, err)
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateValue(t *testing.T) {
	doc := struct {
		Title     string `json:"title"`
		IssueDate string `json:"issue_date"`
	}{Title: "Cloud Practitioner", IssueDate: "2022-11-30"}

	assert.NoError(t, ValidateValue(testSchema, doc))

	doc.Title = ""
	assert.Error(t, ValidateValue(testSchema, doc))
}

func TestValidationError_Format(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "title", Message: "is required"}}}
	assert.Contains(t, err.Error(), "1. title: is required")
}

func TestResolveSchemaPath_NotFound(t *testing.T) {
	assert.Equal(t, "", ResolveSchemaPath("schemas/definitely_missing.schema.json"))
}
