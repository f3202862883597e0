package distribution

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgen/pkg/errors"
)

func TestComputeNormalizer(t *testing.T) {
	data := &fakeTrainingData{
		numAtoms: []int{3, 3, 4, 4},
		columns:  map[string][]float64{"mu": {1, 2, 3, 6}},
	}
	n, err := ComputeNormalizer(data, []string{"mu"})
	require.NoError(t, err)

	// mean 3, |x-3| = {2,1,0,3} → mad 1.5
	assert.InDelta(t, 3.0, n["mu"].Mean, 1e-12)
	assert.InDelta(t, 1.5, n["mu"].MAD, 1e-12)

	_, err = ComputeNormalizer(data, []string{"alpha"})
	assert.True(t, errors.IsConfigurationError(err))
}

func TestNormalizer_Apply(t *testing.T) {
	n := Normalizer{"alpha": {Mean: 2, MAD: 4}}
	v, err := n.Apply("alpha", 10)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = n.Apply("gap", 1)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestNormalizer_ValidateRejectsNonFinite(t *testing.T) {
	n := Normalizer{"alpha": {Mean: math.NaN(), MAD: 1}}
	assert.True(t, errors.IsConfigurationError(n.Validate([]string{"alpha"})))

	n = Normalizer{"alpha": {Mean: 0, MAD: math.Inf(1)}}
	assert.True(t, errors.IsConfigurationError(n.Validate([]string{"alpha"})))

	assert.NoError(t, Normalizer{}.Validate(nil))
}

func TestNormalizerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normalizer.yaml")
	require.NoError(t, WriteNormalizerFile(path, testNormalizer))

	loaded, err := LoadNormalizerFile(path)
	require.NoError(t, err)
	assert.Equal(t, testNormalizer, loaded)
}

func TestLoadNormalizerFile_HandWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normalizer.yaml")
	body := "alpha: {mean: 75.2, mad: 6.3}\nhomo:\n  mean: -0.24\n  mad: 0.016\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	n, err := LoadNormalizerFile(path)
	require.NoError(t, err)
	assert.Equal(t, Stats{Mean: 75.2, MAD: 6.3}, n["alpha"])
	assert.Equal(t, Stats{Mean: -0.24, MAD: 0.016}, n["homo"])
}

func TestLoadNormalizerFile_Errors(t *testing.T) {
	_, err := LoadNormalizerFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactNotFound))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("alpha: [1, 2"), 0o600))
	_, err = LoadNormalizerFile(bad)
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactLoad))

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte(""), 0o600))
	_, err = LoadNormalizerFile(empty)
	assert.True(t, errors.IsConfigurationError(err))
}

//Personal.AI order the ending
