package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beemind",
	Short: "BeeMind evolutionary model discovery",
	Long: `BeeMind searches a space of statistical-model configurations with a
population-based evolutionary algorithm and reports the fittest
configuration it found.

Given a labeled tabular dataset (CSV or Parquet) and a session
configuration, it evolves model families and hyperparameters across
generations using tournament selection, crossover, mutation, and elitism.`,
	Version: "0.1.0",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
