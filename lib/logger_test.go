package lib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesToDatedFile(t *testing.T) {
	dir := t.TempDir()
	logger := Logger(filepath.Join(dir, "escrowhub.log"))
	logger.Info("ledger started")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Name(), "escrowhub-"))
	assert.True(t, strings.HasSuffix(files[0].Name(), ".log"))

	content, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "ledger started")
}

func TestCustomValidator(t *testing.T) {
	type request struct {
		Address string `validate:"required,eth_addr"`
	}
	cv := &CustomValidator{Validator: validator.New()}
	assert.NoError(t, cv.Validate(&request{Address: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"}))
	assert.Error(t, cv.Validate(&request{Address: "0x1234"}))
}
