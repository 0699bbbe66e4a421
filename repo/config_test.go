package repo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/named-data/repo-go/repo"
	"github.com/named-data/repo-go/utils"
	tu "github.com/named-data/repo-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
repo:
  data:
    prefixes: ["/example/data"]
  command:
    prefixes: ["/example/repo"]
  tcp_bulk_insert:
    host: localhost
    port: 7376
  storage:
    method: memory
    path: /tmp/repo-go-test
    max_packets: 100
  registration_subset: 2
  validator:
    type: accept-all
  log_level: DEBUG
face:
  transport: unix:///run/nfd/nfd.sock
`

func TestConfigParse(t *testing.T) {
	tu.SetT(t)

	file := filepath.Join(t.TempDir(), "repo.yml")
	require.NoError(t, os.WriteFile(file, []byte(sampleConfig), 0o644))

	config := repo.DefaultConfig()
	require.NoError(t, utils.ReadYaml(config, file))
	require.NoError(t, config.Parse())

	require.Len(t, config.DataPrefixes(), 1)
	require.Equal(t, "/example/data", config.DataPrefixes()[0].String())
	require.Len(t, config.CommandPrefixes(), 1)
	require.Equal(t, "/example/repo", config.CommandPrefixes()[0].String())
	require.Equal(t, "memory", config.Repo.Storage.Method)
	require.Equal(t, int64(100), config.Repo.Storage.MaxPackets)
	require.Equal(t, 2, config.Repo.RegistrationSubset)
}

func TestConfigRejectsUnknownStorageMethod(t *testing.T) {
	tu.SetT(t)

	config := repo.DefaultConfig()
	config.Repo.Command.Prefixes = []string{"/r"}
	config.Repo.Storage.Method = "leveldb"
	require.Error(t, config.Parse())
}

func TestConfigRequiresCommandPrefix(t *testing.T) {
	tu.SetT(t)

	config := repo.DefaultConfig()
	require.Error(t, config.Parse())
}

func TestConfigValidatorChecks(t *testing.T) {
	tu.SetT(t)

	config := repo.DefaultConfig()
	config.Repo.Command.Prefixes = []string{"/r"}
	config.Repo.Validator.Type = "fixed-signer"
	require.Error(t, config.Parse())

	config.Repo.Validator.KeyFile = "/some/key.pub"
	require.NoError(t, config.Parse())
}
