package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlaceholders(t *testing.T) {
	names, err := ExtractPlaceholders("Hello {#firstName} {#lastName}, you are {#age} years old")
	require.NoError(t, err)
	assert.Equal(t, []string{"firstName", "lastName", "age"}, names)
}

func TestExtractPlaceholdersNone(t *testing.T) {
	names, err := ExtractPlaceholders("no markers here")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestExtractPlaceholdersKeepsDuplicates(t *testing.T) {
	names, err := ExtractPlaceholders("{#name} and {#name} again")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "name"}, names)
}

func TestExtractPlaceholdersUnterminated(t *testing.T) {
	_, err := ExtractPlaceholders("Hello {#firstName, how are you")
	require.Error(t, err)

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, err.Error(), "missing closing bracket")
}

func TestCompileSubstitutesRecord(t *testing.T) {
	record := map[string]string{"firstName": "Grace", "lastName": "Otieno"}

	data, err := Compile("Dear {#firstName} {#lastName}", record, nil)
	require.NoError(t, err)

	assert.Equal(t, "Dear Grace Otieno", data.CompiledText)
	assert.Equal(t, "Dear {#firstName} {#lastName}", data.Template)
	assert.Equal(t, []string{"firstName", "lastName"}, data.Placeholders)
}

func TestCompileRepeatedMarker(t *testing.T) {
	record := map[string]string{"name": "Grace"}

	data, err := Compile("{#name}, yes you, {#name}", record, nil)
	require.NoError(t, err)
	assert.Equal(t, "Grace, yes you, Grace", data.CompiledText)
}

func TestCompileMissingAttributeBecomesEmpty(t *testing.T) {
	data, err := Compile("Hello {#nickname}!", map[string]string{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello !", data.CompiledText)
}

func TestCompileExplicitPlaceholderList(t *testing.T) {
	record := map[string]string{"firstName": "Grace", "lastName": "Otieno"}

	// only the listed placeholder is substituted
	data, err := Compile("{#firstName} {#lastName}", record, []string{"firstName"})
	require.NoError(t, err)
	assert.Equal(t, "Grace {#lastName}", data.CompiledText)
}

func TestCompileUnterminatedMarker(t *testing.T) {
	_, err := Compile("Hello {#firstName", map[string]string{}, nil)
	require.Error(t, err)

	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}
