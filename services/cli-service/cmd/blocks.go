package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"MedSchedulePlatform/services/cli-service/internal/output"
)

func newBlocksCmd(a *app) *cobra.Command {
	blocksCmd := &cobra.Command{
		Use:   "blocks",
		Short: "Управление блокировками IP адресов",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Показать активные блокировки",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			blocks, err := a.client().ListBlocks(ctx)
			if err != nil {
				return err
			}

			table := &output.TableData{Headers: []string{"IP", "REASON", "BLOCKED AT", "EXPIRES AT"}}
			for _, block := range blocks {
				table.Rows = append(table.Rows, []string{
					block.IPAddress, block.Reason, formatTime(block.BlockedAt), formatTime(block.ExpiresAt),
				})
			}
			return a.print(blocks, table)
		},
	}

	var reason string
	var hours int
	addCmd := &cobra.Command{
		Use:   "add <ip>",
		Short: "Заблокировать IP адрес",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			if err := a.client().Block(ctx, args[0], reason, hours); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Blocked %s for %d hours\n", args[0], hours)
			return nil
		},
	}
	addCmd.Flags().StringVar(&reason, "reason", "", "block reason")
	addCmd.Flags().IntVar(&hours, "hours", 24, "block duration in hours")

	removeCmd := &cobra.Command{
		Use:   "remove <ip>",
		Short: "Снять блокировку IP адреса",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			if err := a.client().Unblock(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Unblocked %s\n", args[0])
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Снять все блокировки",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			count, err := a.client().UnblockAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Unblocked %d addresses\n", count)
			return nil
		},
	}

	blocksCmd.AddCommand(listCmd, addCmd, removeCmd, clearCmd)
	return blocksCmd
}
