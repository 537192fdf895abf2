package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/PizzaHomicide/kodicast/internal/app"
	"github.com/PizzaHomicide/kodicast/internal/config"
	"github.com/PizzaHomicide/kodicast/internal/log"
	"github.com/PizzaHomicide/kodicast/internal/timecode"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui"
	"github.com/PizzaHomicide/kodicast/internal/version"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/spf13/cobra"
)

// hostFlags select and authenticate the Kodi host, shared by every command that talks to Kodi
type hostFlags struct {
	host     string
	username string
	password string
	discover bool
}

var (
	hostOpts hostFlags
	debug    bool

	// Set up by the persistent pre-run
	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kodicast SOURCE...",
	Short: "Play local files on Kodi and control playback from the terminal",
	Long: "kodicast serves local video files over HTTP, asks Kodi to play them and acts as a remote until\n" +
		"playback is over.  Several sources play as a Kodi playlist.\n\n" + envHelp(),
	Args:              cobra.MinimumNArgs(1),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			log.Info("kodicast shutting down.  Goodbye!")
			logger.Close()
		}
	},
	RunE: runCast,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&hostOpts.host, "host", "k", "", "Kodi host: a configured host key or a hostname (default: the configured default)")
	flags.StringVarP(&hostOpts.username, "username", "u", "", "Username for Kodi's web server")
	flags.StringVarP(&hostOpts.password, "password", "p", "", "Password for Kodi's web server (default: from the keyring)")
	flags.BoolVar(&hostOpts.discover, "discover", false, "Resolve the host through mDNS before DNS")
	flags.BoolVarP(&debug, "debug", "d", false, "Log at debug level")

	rootCmd.Flags().StringP("start", "s", "", "Start the first item at an offset, e.g. 1h2m3s or 90s")
	rootCmd.Flags().Int("port", 0, "Port for the local file server (default: from the config, 0 picks a free one)")
	rootCmd.Flags().Bool("no-ui", false, "Do not show the remote control, just wait for playback to end")
}

func execute() error {
	cc.Init(&cc.Config{
		RootCmd:       rootCmd,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic + cc.HiBlue,
	})
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

// setup loads the configuration and starts logging before any command runs
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if debug && !strings.EqualFold(level, "trace") {
		level = "debug"
	}
	logger, err = log.New(log.Config{
		Level:    level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	log.SetDefaultLogger(logger)

	log.Info("Starting up kodicast", "version", version.GetVersion(), "build_time", version.GetBuildTime(), "command", cmd.Name())
	return nil
}

func runCast(cmd *cobra.Command, args []string) error {
	opts := options(args)

	if start, _ := cmd.Flags().GetString("start"); start != "" {
		seconds, err := timecode.Parse(start)
		if err != nil {
			return fmt.Errorf("invalid start offset: %w", err)
		}
		opts.StartSeconds = seconds
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		opts.ListenPort = &port
	}

	var ui app.UIFunc = tui.Run
	if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
		ui = nil
	}

	// Interrupts are handled by the session itself so that Kodi is always cleaned up
	if err := app.Run(context.Background(), cfg, opts, ui); err != nil {
		log.Error("Cast failed", "error", err)
		return err
	}
	return nil
}

func options(sources []string) app.Options {
	return app.Options{
		Sources:  sources,
		HostKey:  hostOpts.host,
		Username: hostOpts.username,
		Password: hostOpts.password,
		Discover: hostOpts.discover,
	}
}

// interruptible is the context for the short lived commands, cancelled on ctrl+c
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func envHelp() string {
	var b strings.Builder
	b.WriteString("Environment variables:\n")
	for _, v := range config.EnvVars() {
		fmt.Fprintf(&b, "  %-40s %s\n", v.Name, v.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
