package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
trials: [2, 3]
arms: 2
practice: true
precision: 1
completion: mturk
kinds:
  - [uniform, normal]
  - [uniform, normal]
params:
  min:
    - [0, 0]
    - [0, 0]
  max:
    - [1, 0]
    - [1, 0]
  mean:
    - [0, 5]
    - [0, 5]
  sd:
    - [0, 1]
    - [0, 1]
`

func TestParse(t *testing.T) {
	t.Run("decodes a full task config", func(t *testing.T) {
		config, err := Parse([]byte(sampleYAML))

		require.NoError(t, err)
		require.Equal(t, []int{2, 3}, config.Trials)
		require.Equal(t, 2, config.Arms)
		require.True(t, config.Practice)
		require.NotNil(t, config.Precision, "Set precision should decode into the pointer")
		require.Equal(t, 1, *config.Precision)
		require.Equal(t, "mturk", config.Completion)
		require.Equal(t, "normal", config.Kinds[0][1])
		require.Equal(t, 5.0, config.Params["mean"][1][1])

		_, err = Validate(config)
		require.NoError(t, err, "The decoded config should validate")
	})

	t.Run("leaves precision nil when absent", func(t *testing.T) {
		config, err := Parse([]byte("trials: [5]\narms: 2\n"))

		require.NoError(t, err)
		require.Nil(t, config.Precision, "Absent precision should stay nil so the default applies")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := Parse(nil)

		require.Error(t, err)
		require.Contains(t, err.Error(), "empty")
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("trials: [2,\narms"))

		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("reads a config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "task.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

		config, err := Load(path)

		require.NoError(t, err)
		require.Equal(t, []int{2, 3}, config.Trials)
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

		require.Error(t, err)
	})
}
