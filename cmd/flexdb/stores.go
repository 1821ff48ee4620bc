package main

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/flexdb/flexdb-go/pkg/flexdb"
)

var (
	storeMatch string
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Manage stores",
}

var storesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stores of the account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := matchingStores(cmd, storeMatch)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), storeData(stores))
	},
}

var storesCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := client.CreateStore(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		return printResult(cmd.OutOrStdout(), store.Data)
	},
}

var storesGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Show a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := requireStore(cmd, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), store.Data)
	},
}

var storesEnsureCmd = &cobra.Command{
	Use:   "ensure NAME",
	Short: "Return a store, creating it when it does not exist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := client.EnsureStoreExists(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ensuring store: %w", err)
		}
		return printResult(cmd.OutOrStdout(), store.Data)
	},
}

var storesDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a store and all of its collections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := requireStore(cmd, args[0])
		if err != nil {
			return err
		}
		ack, err := store.Delete(cmd.Context())
		if err != nil {
			return fmt.Errorf("deleting store: %w", err)
		}
		return printResult(cmd.OutOrStdout(), ack)
	},
}

var storesPurgeCmd = &cobra.Command{
	Use:   "purge --match PATTERN",
	Short: "Delete every store whose name matches a glob pattern",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if storeMatch == "" {
			return errors.New("purge requires --match")
		}
		stores, err := matchingStores(cmd, storeMatch)
		if err != nil {
			return err
		}

		var result *multierror.Error
		deleted := make([]string, 0, len(stores))
		for _, store := range stores {
			if _, err := store.Delete(cmd.Context()); err != nil {
				result = multierror.Append(result, fmt.Errorf("store %s (%s): %w", store.Name(), store.ID, err))
				continue
			}
			logger.Debug("store deleted", "name", store.Name(), "id", store.ID)
			deleted = append(deleted, store.Name())
		}
		if err := printResult(cmd.OutOrStdout(), map[string]any{"deleted": deleted}); err != nil {
			return err
		}
		return result.ErrorOrNil()
	},
}

func init() {
	rootCmd.AddCommand(storesCmd)
	storesCmd.AddCommand(storesListCmd, storesCreateCmd, storesGetCmd, storesEnsureCmd, storesDeleteCmd, storesPurgeCmd)
	storesListCmd.Flags().StringVar(&storeMatch, "match", "", "Only stores whose name matches this glob")
	storesPurgeCmd.Flags().StringVar(&storeMatch, "match", "", "Glob selecting the stores to delete")
}

func matchingStores(cmd *cobra.Command, pattern string) ([]*flexdb.Store, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid --match pattern %q", pattern)
	}
	stores, err := client.GetStores(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	if pattern == "" {
		return stores, nil
	}

	matched := make([]*flexdb.Store, 0, len(stores))
	for _, s := range stores {
		ok, err := doublestar.Match(pattern, s.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// requireStore resolves a store by name, turning absence into an error.
func requireStore(cmd *cobra.Command, name string) (*flexdb.Store, error) {
	store, err := client.GetStore(cmd.Context(), name)
	if err != nil {
		return nil, fmt.Errorf("looking up store %q: %w", name, err)
	}
	if store == nil {
		return nil, fmt.Errorf("store %q not found", name)
	}
	return store, nil
}
