package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	internal "github.com/ZanzyTHEbar/textvault/tvault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "textvault-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	// Run from the temp dir so a stray repo-root config.yaml is not
	// picked up by the "." search path.
	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultListenAddr, cfg.Server.ListenAddr)
	assert.Equal(suite.T(), "", cfg.Server.AuthToken)
	assert.Equal(suite.T(), 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(suite.T(), internal.DefaultStoreBackend, cfg.Store.Backend)
	assert.Equal(suite.T(), internal.DefaultStoreRoot, cfg.Store.Root)
	assert.True(suite.T(), cfg.Store.Watch)
	assert.Equal(suite.T(), internal.DefaultSnapshotDir, cfg.Snapshot.Dir)
	assert.Equal(suite.T(), internal.DefaultSnapshotCap, cfg.Snapshot.MaxEntries)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
server:
  listen_addr: ":9999"
  auth_token: "sekrit"
store:
  backend: "libsql"
  db_path: "./vault.db"
  watch: false
snapshot:
  dir: "./snaps"
  max_entries: 7
client:
  base_url: "https://vault.example.com"
  token: "sekrit"
`
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), ":9999", cfg.Server.ListenAddr)
	assert.Equal(suite.T(), "sekrit", cfg.Server.AuthToken)
	assert.Equal(suite.T(), "libsql", cfg.Store.Backend)
	assert.Equal(suite.T(), "./vault.db", cfg.Store.DBPath)
	assert.False(suite.T(), cfg.Store.Watch)
	assert.Equal(suite.T(), "./snaps", cfg.Snapshot.Dir)
	assert.Equal(suite.T(), 7, cfg.Snapshot.MaxEntries)
	assert.Equal(suite.T(), "https://vault.example.com", cfg.Client.BaseURL)
}

func (suite *ConfigTestSuite) TestLoadConfigMissingExplicitFile() {
	_, err := LoadConfig(filepath.Join(suite.tempDir, "does-not-exist.yaml"))
	assert.Error(suite.T(), err)
}
