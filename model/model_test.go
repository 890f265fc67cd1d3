package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const passthroughNet = `{
	"layers": [
		{
			"weights": [[[1], [0], [0], [0], [0], [0]]],
			"bias": [0],
			"dilation": 1
		}
	]
}`

func TestLoadContactNet(t *testing.T) {
	path := writeArtifact(t, "net.json", passthroughNet)
	net, err := LoadContactNet(path)
	require.NoError(t, err)
	require.Len(t, net.Layers, 1)

	// Single 1-tap layer passing channel 0 through the sigmoid head.
	window := make([][]float64, 6)
	for ch := range window {
		window[ch] = make([]float64, 3)
	}
	window[0] = []float64{0, 5, -5}

	out, err := net.Predict(window)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.InDelta(t, 0.5, out[0], 1e-9)
	assert.Greater(t, out[1], 0.99)
	assert.Less(t, out[2], 0.01)
}

func TestContactNetRejectsBadShapes(t *testing.T) {
	_, err := LoadContactNet(writeArtifact(t, "net.json", `{"layers": []}`))
	assert.Error(t, err)

	// Head emitting two channels is not a likelihood sequence.
	twoHead := `{"layers": [{"weights": [[[1]], [[1]]], "bias": [0, 0], "dilation": 1}]}`
	_, err = LoadContactNet(writeArtifact(t, "net.json", twoHead))
	assert.Error(t, err)

	_, err = LoadContactNet(writeArtifact(t, "net.json", `not json`))
	assert.Error(t, err)
}

func TestContactNetPredictValidatesChannels(t *testing.T) {
	net, err := LoadContactNet(writeArtifact(t, "net.json", passthroughNet))
	require.NoError(t, err)

	_, err = net.Predict([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

const tinyGPR = `{
	"length_scale": 1.0,
	"signal_variance": 1.0,
	"bias": 0.5,
	"support": [[0, 0, 0, 0, 0, 0, 0, 0, 0]],
	"alpha": [2.0]
}`

func TestLoadSpeedGPR(t *testing.T) {
	g, err := LoadSpeedGPR(writeArtifact(t, "gpr.json", tinyGPR))
	require.NoError(t, err)

	// At the support point the kernel is 1: bias + alpha.
	speed, err := g.Predict(make([]float64, 9))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, speed, 1e-12)

	// Far from support the kernel vanishes and only the bias remains.
	far := make([]float64, 9)
	for i := range far {
		far[i] = 100
	}
	speed, err = g.Predict(far)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, speed, 1e-9)
}

func TestSpeedGPRValidation(t *testing.T) {
	_, err := LoadSpeedGPR(writeArtifact(t, "gpr.json", `{"length_scale": 0, "support": [[1]], "alpha": [1]}`))
	assert.Error(t, err)

	_, err = LoadSpeedGPR(writeArtifact(t, "gpr.json", `{"length_scale": 1, "support": [[1]], "alpha": [1, 2]}`))
	assert.Error(t, err)

	g, err := LoadSpeedGPR(writeArtifact(t, "gpr.json", tinyGPR))
	require.NoError(t, err)
	_, err = g.Predict([]float64{1, 2})
	assert.Error(t, err)
}

func TestLoadDegradesOnMissingArtifacts(t *testing.T) {
	a := Load(filepath.Join(t.TempDir(), "absent.json"), "")
	assert.Nil(t, a.Contacts)
	assert.Nil(t, a.Speed)

	a = Load("", "")
	assert.Nil(t, a.Contacts)
	assert.Nil(t, a.Speed)
}

func TestLoadBothArtifacts(t *testing.T) {
	a := Load(
		writeArtifact(t, "net.json", passthroughNet),
		writeArtifact(t, "gpr.json", tinyGPR),
	)
	assert.NotNil(t, a.Contacts)
	assert.NotNil(t, a.Speed)
}
