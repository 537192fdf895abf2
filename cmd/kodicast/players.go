package main

import (
	"os"

	"github.com/PizzaHomicide/kodicast/internal/app"
	"github.com/PizzaHomicide/kodicast/internal/config"
	"github.com/spf13/cobra"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Show what players Kodi offers and which are active",
	Long: "Connects to the selected host without changing anything on Kodi and lists its players.  Useful to\n" +
		"check connectivity and credentials before casting.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := interruptible(cmd)
		defer stop()

		schema, _ := cmd.Flags().GetBool("schema")
		d, err := app.Diagnose(ctx, cfg, options(nil), schema)
		if err != nil {
			return err
		}

		if schema {
			_, err := os.Stdout.Write(append(d.Schema, '\n'))
			return err
		}

		cmd.Printf("Kodi:        %s (websocket %s)\n", d.Endpoint.HTTPURL(), d.Endpoint.WebSocketURL())
		cmd.Printf("Served from: %s\n", d.LocalAddr)
		if path, err := config.Path(); err == nil {
			cmd.Printf("Config:      %s\n", path)
		}
		cmd.Println()

		cmd.Println("Players:")
		for _, p := range d.Players {
			cmd.Printf("  %-30s %-10s video=%-5t audio=%t\n", p.Name, p.Type, p.PlaysVideo, p.PlaysAudio)
		}

		cmd.Println("\nActive players:")
		if len(d.ActivePlayers) == 0 {
			cmd.Println("  none")
		}
		for _, p := range d.ActivePlayers {
			cmd.Printf("  #%d %s (%s)\n", p.PlayerID, p.Type, p.PlayerType)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playersCmd)
	playersCmd.Flags().Bool("schema", false, "Print Kodi's JSON-RPC schema instead")
}
