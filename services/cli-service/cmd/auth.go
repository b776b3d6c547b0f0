package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"MedSchedulePlatform/services/cli-service/internal/store"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Войти и сохранить токен администратора",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			ctx, cancel := a.context()
			defer cancel()

			pair, err := a.client().Login(ctx, username, password)
			if err != nil {
				return err
			}

			ts, err := store.NewTokenStore()
			if err != nil {
				return err
			}
			if err := ts.SaveTokens(&store.TokenInfo{
				AccessToken:  pair.AccessToken,
				RefreshToken: pair.RefreshToken,
				ExpiresAt:    time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second),
				Username:     pair.Username,
				Server:       a.v.GetString("server"),
			}); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Logged in as %s (%s), session %s\n", pair.Username, pair.Role, pair.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Завершить сессию и удалить сохраненный токен",
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := store.NewTokenStore()
			if err != nil {
				return err
			}
			info, err := ts.LoadTokens()
			if err != nil {
				return err
			}

			ctx, cancel := a.context()
			defer cancel()

			if err := a.client().Logout(ctx, info.RefreshToken); err != nil {
				return err
			}
			if err := ts.ClearTokens(); err != nil {
				return err
			}

			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}
