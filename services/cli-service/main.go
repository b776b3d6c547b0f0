package main

import (
	"fmt"
	"os"

	"MedSchedulePlatform/services/cli-service/cmd"
)

func main() {
	if err := cmd.NewRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}
