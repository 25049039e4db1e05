package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayFeatures(t *testing.T) {
	g := NewGateway(Options{})
	assert.Equal(t, Features{TextToImage: true, CVGeneration: true}, g.Features())

	g = NewGateway(Options{RemoveBGAPIKey: "rb", DIDAPIKey: "did"})
	f := g.Features()
	assert.True(t, f.BackgroundRemoval)
	assert.True(t, f.TextToVideo)
	assert.NotNil(t, g.Images)
	assert.NotNil(t, g.Backgrounds)
	assert.NotNil(t, g.Videos)
	assert.NotNil(t, g.CVs)
}
