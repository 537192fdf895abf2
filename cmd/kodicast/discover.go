package main

import (
	"errors"
	"fmt"

	"github.com/PizzaHomicide/kodicast/internal/config"
	"github.com/PizzaHomicide/kodicast/internal/discovery"
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [NAME]",
	Short: "Find Kodi instances announced over mDNS",
	Long: "Without a name every Kodi answering within the timeout is listed.  With a name only that instance is\n" +
		"looked up.  --save stores the found host in the config under the given key.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := interruptible(cmd)
		defer stop()

		timeout, _ := cmd.Flags().GetDuration("timeout")

		var hosts []discovery.Host
		if len(args) == 1 {
			h, err := discovery.Lookup(ctx, args[0], timeout)
			if err != nil {
				return err
			}
			hosts = []discovery.Host{h}
		} else {
			var err error
			if hosts, err = discovery.Browse(ctx, timeout); err != nil {
				return err
			}
		}

		if len(hosts) == 0 {
			cmd.Println("No Kodi found.  Is \"Allow remote control from applications on other systems\" enabled?")
			return nil
		}
		for _, h := range hosts {
			cmd.Println(h.String())
		}

		key, _ := cmd.Flags().GetString("save")
		if key == "" {
			return nil
		}
		if len(hosts) > 1 {
			return errors.New("several hosts found, name the one to save")
		}
		makeDefault, _ := cmd.Flags().GetBool("default")
		if err := saveDiscovered(key, hosts[0], makeDefault); err != nil {
			return err
		}
		cmd.Printf("Saved %s as %q\n", hosts[0].Instance, key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().Duration("timeout", discovery.DefaultTimeout, "How long to wait for answers")
	discoverCmd.Flags().String("save", "", "Save the found host in the config under this key")
	discoverCmd.Flags().Bool("default", false, "Make the saved host the default")
}

func saveDiscovered(key string, h discovery.Host, makeDefault bool) error {
	host := config.HostConfig{
		Hostname:  h.Hostname,
		Discovery: true,
	}
	if h.Port != config.DefaultHTTPPort {
		host.Port = h.Port
	}
	if err := config.SaveHost(key, host, makeDefault); err != nil {
		return fmt.Errorf("saving host: %w", err)
	}
	return nil
}
