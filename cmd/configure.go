package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jonandersen/apca/internal/auth"
	"github.com/jonandersen/apca/internal/config"
	"github.com/jonandersen/apca/internal/keyring"
	"github.com/jonandersen/apca/internal/market"
	"github.com/jonandersen/apca/pkg/alpaca"
)

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads passwords from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// lineReader abstracts visible line input for testing.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

// terminalPrompter reads lines from stdin.
type terminalPrompter struct {
	scanner *bufio.Scanner
	writer  io.Writer
}

func newTerminalPrompter(r io.Reader, w io.Writer) *terminalPrompter {
	return &terminalPrompter{scanner: bufio.NewScanner(r), writer: w}
}

func (p *terminalPrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.writer, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// configureOptions holds dependencies for the configure command.
type configureOptions struct {
	configPath     string
	store          keyring.Store
	passwordReader passwordReader
	prompt         lineReader
}

func (o configureOptions) path() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.ConfigPath()
}

// configureFlags select what configure changes besides the key pair.
type configureFlags struct {
	live          bool
	enableTrading bool
	show          bool
	clear         bool
}

func newConfigureCmd(opts configureOptions) *cobra.Command {
	var flags configureFlags

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure API credentials",
		Long: `Configure the CLI with your Alpaca API key pair.

You will be prompted for the key id and, without echo, the secret key. The
pair is checked against the account endpoint and stored in the system
keyring. Paper trading is used unless --live is given.

Examples:
  apca configure
  apca configure --live --enable-trading
  apca configure --show
  apca configure --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case flags.clear:
				return runClearCredentials(cmd, opts)
			case flags.show:
				return runViewConfiguration(cmd, opts)
			}
			return runConfigure(cmd, opts, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.live, "live", false, "Use the live trading host instead of paper trading")
	cmd.Flags().BoolVar(&flags.enableTrading, "enable-trading", false, "Allow order placement")
	cmd.Flags().BoolVar(&flags.show, "show", false, "Show the current configuration")
	cmd.Flags().BoolVar(&flags.clear, "clear", false, "Remove the stored key pair")
	cmd.MarkFlagsMutuallyExclusive("show", "clear")

	// Don't show usage info on validation errors - just show the error
	cmd.SilenceUsage = true

	return cmd
}

func runConfigure(cmd *cobra.Command, opts configureOptions, flags configureFlags) error {
	// Verify we're running in an interactive terminal
	if !opts.passwordReader.IsTerminal() {
		return fmt.Errorf("configure requires an interactive terminal\nSet %s and %s instead when scripting", keyring.EnvKeyID, keyring.EnvSecretKey)
	}

	cfg, err := config.Load(opts.path())
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if flags.live {
		cfg.TradingBaseURL = alpaca.LiveTradingURL
	}
	if flags.enableTrading {
		cfg.TradingEnabled = true
	}

	keyID, err := opts.prompt.ReadLine("Enter your API key id: ")
	if err != nil {
		return fmt.Errorf("failed to read key id: %w", err)
	}
	if keyID == "" {
		return fmt.Errorf("key id cannot be empty")
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Enter your secret key: ")
	secretKey, err := opts.passwordReader.ReadPassword()
	if err != nil {
		return fmt.Errorf("failed to read secret key: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout()) // Print newline after hidden input

	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return fmt.Errorf("secret key cannot be empty")
	}

	creds := alpaca.Credentials{KeyID: keyID, SecretKey: secretKey}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := alpaca.NewClient(cfg.TradingBaseURL, cfg.DataBaseURL, creds)
	acct, err := (&market.AccountDownloader{Transport: client}).Download(ctx)
	if err != nil {
		return fmt.Errorf("failed to validate credentials: %w", err)
	}

	if err := auth.Store(opts.store, creds); err != nil {
		return err
	}
	if err := config.Save(opts.path(), cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved successfully!")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Account %s (%s) on %s\n", acct.Number, acct.Status, cfg.TradingBaseURL)
	if !cfg.TradingEnabled {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Trading is disabled; rerun with --enable-trading to place orders.")
	}
	return nil
}

// runViewConfiguration displays the current configuration.
func runViewConfiguration(cmd *cobra.Command, opts configureOptions) error {
	cfg, err := config.Load(opts.path())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, "Current Configuration:")
	_, _ = fmt.Fprintln(w, "----------------------")
	_, _ = fmt.Fprintf(w, "Config file: %s\n", opts.path())

	creds, err := auth.Resolve(opts.store)
	if err == nil {
		_, _ = fmt.Fprintf(w, "Key id: %s\n", maskKey(creds.KeyID))
	} else {
		_, _ = fmt.Fprintln(w, "Key id: Not configured")
	}

	_, _ = fmt.Fprintf(w, "Trading URL: %s\n", cfg.TradingBaseURL)
	_, _ = fmt.Fprintf(w, "Data URL: %s\n", cfg.DataBaseURL)
	_, _ = fmt.Fprintf(w, "Feeds: stock=%s option=%s\n", cfg.StockFeed, cfg.OptionFeed)
	_, _ = fmt.Fprintf(w, "Trading enabled: %t\n", cfg.TradingEnabled)

	return nil
}

// maskKey keeps the last four characters of a key id.
func maskKey(k string) string {
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}

func runClearCredentials(cmd *cobra.Command, opts configureOptions) error {
	if err := auth.Clear(opts.store); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials cleared successfully.")
	return nil
}

func init() {
	rootCmd.AddCommand(newConfigureCmd(configureOptions{
		store:          keyring.NewEnvStore(keyring.NewSystemStore()),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
	}))
}
