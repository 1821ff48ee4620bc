package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flexdb/flexdb-go/pkg/flexdb"
)

var (
	docsStore   string
	docsData    string
	vaultKeyHex string

	listPage  int
	listLimit int
	listSkip  int

	copyToStore  string
	copyPageSize int
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage documents in a store's collections",
}

var docsCreateCmd = &cobra.Command{
	Use:   "create COLLECTION",
	Short: "Create a document from --data (or stdin with --data -)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readData(cmd.InOrStdin())
		if err != nil {
			return err
		}
		coll, err := collection(cmd, args[0])
		if err != nil {
			return err
		}

		v, err := vaultOf(coll)
		if err != nil {
			return err
		}
		var doc flexdb.Document
		if v != nil {
			doc, err = v.Create(cmd.Context(), data)
		} else {
			doc, err = coll.Create(cmd.Context(), data)
		}
		if err != nil {
			return fmt.Errorf("creating document: %w", err)
		}
		return printResult(cmd.OutOrStdout(), doc)
	},
}

var docsGetCmd = &cobra.Command{
	Use:   "get COLLECTION ID",
	Short: "Show a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := collection(cmd, args[0])
		if err != nil {
			return err
		}

		v, err := vaultOf(coll)
		if err != nil {
			return err
		}
		var doc flexdb.Document
		if v != nil {
			doc, err = v.Get(cmd.Context(), args[1])
		} else {
			doc, err = coll.Get(cmd.Context(), args[1])
		}
		if err != nil {
			return fmt.Errorf("getting document: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("document %q not found in %s", args[1], args[0])
		}
		return printResult(cmd.OutOrStdout(), doc)
	},
}

var docsListCmd = &cobra.Command{
	Use:   "list COLLECTION",
	Short: "List documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := collection(cmd, args[0])
		if err != nil {
			return err
		}

		var params []flexdb.QueryParam
		if cmd.Flags().Changed("page") {
			params = append(params, flexdb.Page(listPage))
		}
		if cmd.Flags().Changed("limit") {
			params = append(params, flexdb.Limit(listLimit))
		}
		if cmd.Flags().Changed("skip") {
			params = append(params, flexdb.Skip(listSkip))
		}

		docs, err := coll.GetMany(cmd.Context(), params...)
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}
		if docs == nil {
			docs = []flexdb.Document{}
		}
		return printResult(cmd.OutOrStdout(), docs)
	},
}

var docsUpdateCmd = &cobra.Command{
	Use:   "update COLLECTION ID",
	Short: "Replace a document with --data",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readData(cmd.InOrStdin())
		if err != nil {
			return err
		}
		coll, err := collection(cmd, args[0])
		if err != nil {
			return err
		}

		v, err := vaultOf(coll)
		if err != nil {
			return err
		}
		var doc flexdb.Document
		if v != nil {
			doc, err = v.Update(cmd.Context(), args[1], data)
		} else {
			doc, err = coll.Update(cmd.Context(), args[1], data)
		}
		if err != nil {
			return fmt.Errorf("updating document: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("document %q not found in %s", args[1], args[0])
		}
		return printResult(cmd.OutOrStdout(), doc)
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete COLLECTION ID",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := collection(cmd, args[0])
		if err != nil {
			return err
		}
		ack, err := coll.Delete(cmd.Context(), args[1])
		if err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		if ack == nil {
			return fmt.Errorf("document %q not found in %s", args[1], args[0])
		}
		return printResult(cmd.OutOrStdout(), ack)
	},
}

var docsDropCmd = &cobra.Command{
	Use:   "drop COLLECTION",
	Short: "Delete a whole collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := collection(cmd, args[0])
		if err != nil {
			return err
		}
		ack, err := coll.DeleteCollection(cmd.Context())
		if err != nil {
			return fmt.Errorf("dropping collection: %w", err)
		}
		if ack == nil {
			return fmt.Errorf("collection %q not found", args[0])
		}
		return printResult(cmd.OutOrStdout(), ack)
	},
}

var docsCopyCmd = &cobra.Command{
	Use:   "copy SRC DST",
	Short: "Copy every document of a collection into another collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := collection(cmd, args[0])
		if err != nil {
			return err
		}
		dstStore := src.Store()
		if copyToStore != "" {
			if dstStore, err = requireStore(cmd, copyToStore); err != nil {
				return err
			}
		}

		copied, err := flexdb.CopyCollection(cmd.Context(), src, dstStore.Collection(args[1]), copyPageSize)
		if perr := printResult(cmd.OutOrStdout(), map[string]any{"copied": copied}); perr != nil {
			return perr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsCreateCmd, docsGetCmd, docsListCmd, docsUpdateCmd, docsDeleteCmd, docsDropCmd, docsCopyCmd)

	docsCmd.PersistentFlags().StringVarP(&docsStore, "store", "s", "", "Store name")
	_ = docsCmd.MarkPersistentFlagRequired("store")

	for _, c := range []*cobra.Command{docsCreateCmd, docsUpdateCmd} {
		c.Flags().StringVarP(&docsData, "data", "d", "", "Document JSON, or - to read stdin")
		_ = c.MarkFlagRequired("data")
	}
	for _, c := range []*cobra.Command{docsCreateCmd, docsGetCmd, docsUpdateCmd} {
		c.Flags().StringVar(&vaultKeyHex, "vault-key", "", "Hex-encoded 32-byte key for sealed documents")
	}

	docsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number, starting at 1")
	docsListCmd.Flags().IntVar(&listLimit, "limit", 20, "Documents per page")
	docsListCmd.Flags().IntVar(&listSkip, "skip", 0, "Documents to skip (not with --page)")

	docsCopyCmd.Flags().StringVar(&copyToStore, "to-store", "", "Destination store (default: same store)")
	docsCopyCmd.Flags().IntVar(&copyPageSize, "page-size", flexdb.DefaultCopyPageSize, "Documents fetched per page")
}

func collection(cmd *cobra.Command, name string) (*flexdb.Collection, error) {
	store, err := requireStore(cmd, docsStore)
	if err != nil {
		return nil, err
	}
	return store.Collection(name), nil
}

func vaultOf(coll *flexdb.Collection) (*flexdb.VaultCollection, error) {
	if vaultKeyHex == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(vaultKeyHex)
	if err != nil || len(key) != 32 {
		return nil, errors.New("--vault-key must be 64 hex characters")
	}
	return coll.Vault(key), nil
}

// readData parses --data as a JSON object.
func readData(stdin io.Reader) (map[string]any, error) {
	raw := []byte(docsData)
	if strings.TrimSpace(docsData) == "-" {
		var err error
		if raw, err = io.ReadAll(stdin); err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("--data must be a JSON object: %w", err)
	}
	return data, nil
}
