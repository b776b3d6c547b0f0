package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"MedSchedulePlatform/services/cli-service/internal/client"
	"MedSchedulePlatform/services/cli-service/internal/output"
	"MedSchedulePlatform/services/cli-service/internal/store"
)

// app общее состояние команд: настройки viper и поток вывода
type app struct {
	v   *viper.Viper
	out io.Writer
}

// NewRootCmd собирает дерево команд medsched-admin.
// Настройки берутся из флагов, переменных MEDSCHED_* и ~/.medsched-admin.yaml.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}

	rootCmd := &cobra.Command{
		Use:   "medsched-admin",
		Short: "medsched-admin - администрирование подсистемы безопасности",
		Long: `medsched-admin управляет блокировками IP адресов, сессиями
пользователей и журналом попыток входа через административный API.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.medsched-admin.yaml)")
	flags.StringP("server", "s", "http://localhost:8080", "auth service address")
	flags.String("token", "", "admin access token (default is the token saved by login)")
	flags.StringP("output", "o", "table", "output format (table, json, yaml)")
	flags.Duration("timeout", 30*time.Second, "request timeout")

	for _, name := range []string{"config", "server", "token", "output", "timeout"} {
		a.v.BindPFlag(name, flags.Lookup(name))
	}
	a.v.SetEnvPrefix("MEDSCHED")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newBlocksCmd(a),
		newSessionsCmd(a),
		newAttemptsCmd(a),
	)
	return rootCmd
}

// initConfig читает файл конфигурации, если он есть
func (a *app) initConfig() error {
	cfgFile := a.v.GetString("config")
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		a.v.AddConfigPath(home)
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".medsched-admin")
	}

	if err := a.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func (a *app) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.v.GetDuration("timeout"))
}

// client создает API клиент. Без --token используется сохраненный токен.
func (a *app) client() *client.AdminClient {
	token := a.v.GetString("token")
	if token == "" {
		if ts, err := store.NewTokenStore(); err == nil {
			token = ts.GetAccessToken()
		}
	}
	return client.NewAdminClient(a.v.GetString("server"), token, a.v.GetDuration("timeout"))
}

func (a *app) print(data interface{}, table *output.TableData) error {
	format, err := output.ParseFormat(a.v.GetString("output"))
	if err != nil {
		return err
	}
	return output.Print(a.out, format, data, table)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
