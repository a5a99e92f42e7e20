// Package commands implements the settle CLI, which computes and checks
// receipt settlements offline from a JSON export.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/service"
	"github.com/mmynk/receiptsplit/pkg/api"
)

// NewRootCmd builds the command tree. Tests build their own to capture output.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "settle",
		Short: "Compute and verify receipt settlements offline",
		Long: `settle reads a receipt in the service's JSON form (as returned by
GetReceipt) and computes who owes what, without a server or database.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("file", "f", "", "receipt JSON file (- for stdin)")
	root.AddCommand(newComputeCmd(), newCheckCmd())
	return root
}

// Execute runs the CLI. This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// loadReceipt reads the --file flag. A ReceiptResponse wrapper is accepted
// too, so GetReceipt output can be piped in as is.
func loadReceipt(cmd *cobra.Command) (*models.Receipt, *api.Receipt, error) {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return nil, nil, fmt.Errorf("--file is required")
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var wrapped struct {
		Receipt *api.Receipt `json:"receipt"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Receipt != nil {
		r, err := service.ReceiptFromAPI(*wrapped.Receipt)
		return r, wrapped.Receipt, err
	}

	var in api.Receipt
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	r, err := service.ReceiptFromAPI(in)
	return r, &in, err
}
