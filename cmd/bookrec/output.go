package main

import (
	"encoding/json"
	"os"

	"github.com/rushteam/bookrec/core"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// exitCode 按领域错误代码映射退出码。
func exitCode(err error) int {
	de := core.GetDomainError(err)
	if de == nil {
		return ExitError
	}
	switch {
	case de.Module == core.ModuleConfig || de.Code == core.ErrorCodeNotSupported:
		return ExitConfigError
	case de.Code == core.ErrorCodeInvalidInput || de.Code == core.ErrorCodeNotFound:
		return ExitDataError
	default:
		return ExitError
	}
}

// ImportResponse is the response of the import command.
type ImportResponse struct {
	Reader   string `json:"reader"`
	Imported int    `json:"imported"`
}

// BlockResponse is the response of the block command.
type BlockResponse struct {
	Reader  string   `json:"reader"`
	Key     string   `json:"key"`
	Entries []string `json:"entries"`
}
