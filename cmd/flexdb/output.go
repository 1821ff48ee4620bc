package main

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/flexdb/flexdb-go/internal/config"
	"github.com/flexdb/flexdb-go/pkg/flexdb"
)

// printResult writes v in the configured output format.
func printResult(w io.Writer, v any) error {
	if cfg.Output == config.OutputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func storeData(stores []*flexdb.Store) []map[string]any {
	out := make([]map[string]any, 0, len(stores))
	for _, s := range stores {
		out = append(out, s.Data)
	}
	return out
}
