package config

import (
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Profile represents the assistant profile loaded from a TOML file. It
// shapes the conversational persona without changing retrieval behavior.
type Profile struct {
	Name        string `toml:"name"`
	Persona     string `toml:"persona"`
	DefaultCity string `toml:"default_city"`

	path string
}

// Flags returns CLI flags for profile configuration
func (p *Profile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "Path to an assistant profile TOML file (optional)",
			Sources:     cli.EnvVars("SORTIR_PROFILE"),
			Destination: &p.path,
		},
	}
}

// Validate checks if the Profile is valid
func (p *Profile) Validate() error {
	if p.Name == "" && p.Persona != "" {
		return goerr.New("profile name is required when persona is set")
	}
	return nil
}

// PersonaText renders the persona instructions injected into the system
// prompts, folding the default city in when one is set.
func (p *Profile) PersonaText() string {
	if p.Persona == "" && p.DefaultCity == "" {
		return ""
	}
	text := p.Persona
	if p.DefaultCity != "" {
		if text != "" {
			text += "\n"
		}
		text += fmt.Sprintf("Quand l'utilisateur ne précise pas de ville, considère qu'il s'agit de %s.", p.DefaultCity)
	}
	return text
}

// Load reads the profile file if one was configured. Without a profile
// flag the zero Profile is returned and prompt defaults apply.
func (p *Profile) Load() error {
	if p.path == "" {
		return nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(p.path)
	if err != nil {
		return goerr.Wrap(err, "failed to read profile file", goerr.V("path", p.path))
	}

	if err := toml.Unmarshal(data, p); err != nil {
		return goerr.Wrap(err, "failed to parse TOML profile", goerr.V("path", p.path))
	}

	if err := p.Validate(); err != nil {
		return goerr.Wrap(err, "profile validation failed", goerr.V("path", p.path))
	}

	return nil
}
