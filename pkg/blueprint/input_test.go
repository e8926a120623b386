package blueprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() UserInput {
	return UserInput{
		BusinessIdea: "A marketplace for renting out photography gear between hobbyists",
		DetailLevel:  DetailDetailed,
		Platform:     PlatformAWS,
	}
}

func TestUserInputValidate(t *testing.T) {
	in := validInput()
	require.NoError(t, in.Validate())
}

func TestUserInputValidateShortIdea(t *testing.T) {
	in := validInput()
	in.BusinessIdea = "todo app"
	err := in.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 10 characters")
}

func TestUserInputValidateBadDetailLevel(t *testing.T) {
	in := validInput()
	in.DetailLevel = "exhaustive"
	assert.Error(t, in.Validate())
}

func TestUserInputValidateBadPlatform(t *testing.T) {
	in := validInput()
	in.Platform = "bare_metal"
	assert.Error(t, in.Validate())
}

func TestUserInputValidateCustomPlatform(t *testing.T) {
	in := validInput()
	in.Platform = PlatformOther

	err := in.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom platform name required")

	in.CustomPlatform = "Hetzner Cloud"
	require.NoError(t, in.Validate())
}

func TestUserInputValidateCustomPlatformOnlyForOther(t *testing.T) {
	in := validInput()
	in.CustomPlatform = "Hetzner Cloud"
	err := in.Validate()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "only allowed"))
}

func TestUserInputPlatformName(t *testing.T) {
	in := validInput()
	assert.Equal(t, "aws", in.PlatformName())

	in.Platform = PlatformOther
	in.CustomPlatform = "Hetzner Cloud"
	assert.Equal(t, "Hetzner Cloud", in.PlatformName())
}
