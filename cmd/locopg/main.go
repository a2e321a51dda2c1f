// Command locopg trains and tests one-step actor-critic and vanilla
// policy gradient agents on lunar lander and legged locomotion tasks.
//
// Usage:
//
//	locopg lander   [flags]   continuous lunar lander, Gaussian policy
//	locopg walker   [flags]   bipedal walker, state-independent stds
//	locopg hopper   [flags]   hopper with locomotion rewards
//	locopg discrete [flags]   discrete lunar lander, vanilla PG
//
// Flag defaults may be overridden by LOCOPG_<FLAG> environment
// variables, which are also read from a .env file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd := &cobra.Command{
		Use:           "locopg",
		Short:         "Train and test policy gradient agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, s := range scripts {
		cmd, err := newCommand(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		rootCmd.AddCommand(cmd)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
