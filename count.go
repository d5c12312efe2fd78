package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-stats/mbox"
)

var countCmd = &cobra.Command{
	Use:   "count [mbox file]",
	Short: "Count the messages in an mbox archive without computing statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := mbox.CountMessages(args[0])
		if err != nil {
			return err
		}
		pterm.Info.Printf("Total messages in mbox: %d\n", count)
		return nil
	},
}
