package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"MedSchedulePlatform/services/cli-service/internal/output"
)

func newSessionsCmd(a *app) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Сессии пользователей",
	}

	listCmd := &cobra.Command{
		Use:   "list <username>",
		Short: "Показать активные сессии пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			sessions, err := a.client().ListSessions(ctx, args[0])
			if err != nil {
				return err
			}

			table := &output.TableData{Headers: []string{"ID", "USER TYPE", "IP", "LOGIN", "LAST ACTIVITY"}}
			for _, session := range sessions {
				table.Rows = append(table.Rows, []string{
					session.ID, session.UserType, session.IPAddress,
					formatTime(session.LoginTime), formatTime(session.LastActivity),
				})
			}
			return a.print(sessions, table)
		},
	}

	revokeCmd := &cobra.Command{
		Use:   "revoke <username>",
		Short: "Завершить все сессии пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			count, err := a.client().RevokeSessions(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deactivated %d sessions of %s\n", count, args[0])
			return nil
		},
	}

	sessionsCmd.AddCommand(listCmd, revokeCmd)
	return sessionsCmd
}

func newAttemptsCmd(a *app) *cobra.Command {
	attemptsCmd := &cobra.Command{
		Use:   "attempts",
		Short: "Журнал попыток входа",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list <username>",
		Short: "Показать последние попытки входа пользователя",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			attempts, err := a.client().ListAttempts(ctx, args[0], limit)
			if err != nil {
				return err
			}

			table := &output.TableData{Headers: []string{"TIME", "IP", "SUCCESS"}}
			for _, attempt := range attempts {
				table.Rows = append(table.Rows, []string{
					formatTime(attempt.AttemptedAt), attempt.IPAddress, strconv.FormatBool(attempt.Successful),
				})
			}
			return a.print(attempts, table)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "number of attempts (max 100)")

	attemptsCmd.AddCommand(listCmd)
	return attemptsCmd
}
