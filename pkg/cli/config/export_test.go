package config

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// Dimension exposes the parsed embedding dimension for testing purposes
func (g *Gemini) Dimension() int {
	return g.dimension
}
