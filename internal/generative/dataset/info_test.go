package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgen/pkg/errors"
)

const qm9InfoYAML = `
name: qm9_second_half
atom_decoder: [H, C, N, O, F]
max_n_nodes: 29
n_nodes:
  9: 40
  19: 120
  29: 2
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadInfo(t *testing.T) {
	info, err := LoadInfo(writeFile(t, "info.yaml", qm9InfoYAML))
	require.NoError(t, err)

	assert.Equal(t, "qm9_second_half", info.Name)
	assert.Equal(t, []string{"H", "C", "N", "O", "F"}, info.AtomDecoder)
	assert.Equal(t, 29, info.MaxNNodes)
	assert.Equal(t, map[int]int{9: 40, 19: 120, 29: 2}, info.NNodes)
	assert.Equal(t, map[int]float64{9: 40, 19: 120, 29: 2}, info.Histogram())
}

func TestLoadInfo_Errors(t *testing.T) {
	_, err := LoadInfo(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactNotFound))

	_, err = LoadInfo(writeFile(t, "bad.yaml", "atom_decoder: [H, C"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactLoad))

	_, err = LoadInfo(writeFile(t, "nodecoder.yaml", "n_nodes: {9: 1}\n"))
	assert.True(t, errors.IsConfigurationError(err))

	_, err = LoadInfo(writeFile(t, "nohist.yaml", "atom_decoder: [H]\n"))
	assert.True(t, errors.IsConfigurationError(err))

	_, err = LoadInfo(writeFile(t, "neg.yaml", "atom_decoder: [H]\nn_nodes: {9: -1}\n"))
	assert.True(t, errors.IsConfigurationError(err))
}

//Personal.AI order the ending
