package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fieldsafe/datahealth-engine/pkg/schema"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the assessable schemas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := schema.NewRegistry()

		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"Schema", "Table", "Columns", "Critical"})

		var data [][]string
		for _, id := range registry.IDs() {
			desc, err := registry.Resolve(id)
			if err != nil {
				return err
			}
			data = append(data, []string{
				id,
				desc.Table,
				fmt.Sprintf("%d", len(desc.Columns)),
				fmt.Sprintf("%d", len(desc.Critical)),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)
}
