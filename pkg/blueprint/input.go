// Package blueprint defines the domain model for generated technical
// blueprints: the user request, the per-stage payloads produced by the
// generation pipeline, and the aggregate blueprint document.
package blueprint

import "fmt"

// DetailLevel selects how deep the generated blueprint goes.
type DetailLevel string

const (
	DetailHighLevel       DetailLevel = "high_level"
	DetailDetailed        DetailLevel = "detailed"
	DetailProductionReady DetailLevel = "production_ready"
)

// Valid reports whether the detail level is one of the known tiers.
func (d DetailLevel) Valid() bool {
	switch d {
	case DetailHighLevel, DetailDetailed, DetailProductionReady:
		return true
	default:
		return false
	}
}

// Platform is a deployment platform the user can target.
type Platform string

const (
	PlatformAWS          Platform = "aws"
	PlatformGCP          Platform = "gcp"
	PlatformAzure        Platform = "azure"
	PlatformDigitalOcean Platform = "digital_ocean"
	PlatformHeroku       Platform = "heroku"
	PlatformVercel       Platform = "vercel"
	PlatformRender       Platform = "render"
	PlatformRailway      Platform = "railway"
	PlatformFlyIO        Platform = "fly_io"
	PlatformOther        Platform = "other"
)

// Valid reports whether the platform is a known target.
func (p Platform) Valid() bool {
	switch p {
	case PlatformAWS, PlatformGCP, PlatformAzure, PlatformDigitalOcean,
		PlatformHeroku, PlatformVercel, PlatformRender, PlatformRailway,
		PlatformFlyIO, PlatformOther:
		return true
	default:
		return false
	}
}

// UserInput is the request that starts a generation run.
type UserInput struct {
	BusinessIdea   string      `json:"business_idea"`
	DetailLevel    DetailLevel `json:"detail_level"`
	Platform       Platform    `json:"deployment_platform"`
	CustomPlatform string      `json:"custom_platform,omitempty"` // Only when Platform is "other"
}

const minIdeaLength = 10

// Validate checks the input before any generation work starts.
func (in *UserInput) Validate() error {
	if len(in.BusinessIdea) < minIdeaLength {
		return fmt.Errorf("business idea must be at least %d characters, got %d", minIdeaLength, len(in.BusinessIdea))
	}
	if !in.DetailLevel.Valid() {
		return fmt.Errorf("unknown detail level %q", in.DetailLevel)
	}
	if !in.Platform.Valid() {
		return fmt.Errorf("unknown deployment platform %q", in.Platform)
	}
	if in.Platform == PlatformOther && in.CustomPlatform == "" {
		return fmt.Errorf("custom platform name required when platform is %q", PlatformOther)
	}
	if in.Platform != PlatformOther && in.CustomPlatform != "" {
		return fmt.Errorf("custom platform name only allowed when platform is %q", PlatformOther)
	}
	return nil
}

// PlatformName returns the display name of the deployment target.
func (in *UserInput) PlatformName() string {
	if in.Platform == PlatformOther {
		return in.CustomPlatform
	}
	return string(in.Platform)
}
