package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctreffe/alfred"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of alfred",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("alfred version %s\n", alfred.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
