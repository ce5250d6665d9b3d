package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	bad := TemplateSet{Name: "x", FirstStage: "hello", SecondStage: "y {#input}"}

	err := Validate(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplateInvalid)
	assert.False(t, IsValid(bad))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		"firstStage must contain {#input}",
		"secondStage must contain {#promptResults1}",
	}, verr.Problems)

	good := bad
	good.FirstStage = "hello {#input}"
	good.SecondStage = "y {#input} {#promptResults1}"
	assert.NoError(t, Validate(good))
	assert.True(t, IsValid(good))
}

func TestValidate_EmptyFields(t *testing.T) {
	var verr *ValidationError
	require.ErrorAs(t, Validate(TemplateSet{Name: "  "}), &verr)

	assert.Equal(t, []string{"name is empty", "firstStage is empty", "secondStage is empty"}, verr.Problems)
}

func TestBuiltinsAreValid(t *testing.T) {
	builtins := Builtins()

	require.Len(t, builtins, 2)
	assert.Equal(t, BuiltinStandardID, builtins[0].ID)
	assert.Equal(t, BuiltinSimpleID, builtins[1].ID)
	for _, b := range builtins {
		assert.NoError(t, Validate(b), b.ID)
		assert.True(t, b.IsDefault)
	}
	assert.Greater(t, len(builtins[0].FirstStage), len(builtins[1].FirstStage))
}
