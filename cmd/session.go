package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonandersen/apca/internal/auth"
	"github.com/jonandersen/apca/internal/config"
	"github.com/jonandersen/apca/internal/keyring"
	"github.com/jonandersen/apca/internal/market"
	"github.com/jonandersen/apca/pkg/alpaca"
)

// apiOptions holds what commands that call the API depend on. Tests fill it
// directly; at runtime load populates it from config and the keyring.
type apiOptions struct {
	client   *alpaca.Client
	cfg      *config.Config
	jsonMode bool
}

// load is installed as a PersistentPreRunE so credentials are only
// required by commands that use them.
func (o *apiOptions) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	creds, err := auth.Resolve(keyring.NewEnvStore(keyring.NewSystemStore()))
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.client = alpaca.NewClient(cfg.TradingBaseURL, cfg.DataBaseURL, creds)
	o.jsonMode = GetJSONMode()
	return nil
}

func (o *apiOptions) settings() *config.Config {
	if o.cfg == nil {
		return config.DefaultConfig()
	}
	return o.cfg
}

func (o *apiOptions) transport() market.Transport {
	return o.client
}

// withAPI attaches opts.load to cmd and registers it on the root.
func withAPI(opts *apiOptions, cmd *cobra.Command) {
	cmd.PersistentPreRunE = opts.load
	rootCmd.AddCommand(cmd)
}
