package main

import (
	"fmt"
	"os"
)

var flagConfig string

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"engine config file (default: auto-resolved engine.yaml)")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}
