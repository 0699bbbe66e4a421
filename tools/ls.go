package tools

import (
	"fmt"

	"github.com/named-data/repo-go/repo"
	"github.com/named-data/repo-go/storage"
	"github.com/named-data/repo-go/utils"
	"github.com/spf13/cobra"
)

var lsFlags = struct {
	noDigest bool
}{}

// CmdLs lists the stored names straight out of the storage engine, so
// it must run against a stopped repository (or a copy of its store).
var CmdLs = &cobra.Command{
	Use:   "ls CONFIG-FILE",
	Short: "List names of data packets in the repository storage",
	Args:  cobra.ExactArgs(1),
	RunE:  runLs,
}

func init() {
	CmdLs.Flags().BoolVarP(&lsFlags.noDigest, "no-digest", "n", false,
		"Do not show the implicit digest component")
}

func runLs(cmd *cobra.Command, args []string) error {
	config := repo.DefaultConfig()
	if err := utils.ReadYaml(config, args[0]); err != nil {
		return err
	}
	if err := config.Parse(); err != nil {
		return err
	}

	var store storage.Storage
	var err error
	switch config.Repo.Storage.Method {
	case "sqlite":
		store, err = storage.NewSqliteStorage(config.Repo.Storage.Path)
	case "badger":
		store, err = storage.NewBadgerStorage(config.Repo.Storage.Path)
	default:
		return fmt.Errorf("storage method %q holds no persistent names", config.Repo.Storage.Method)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	count := 0
	err = store.Enumerate(func(item storage.ItemMeta) error {
		name := item.FullName
		if lsFlags.noDigest && name.IsFullName() {
			name = name.Prefix(-1)
		}
		fmt.Println(name)
		count++
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("total %d packets\n", count)
	return nil
}
