// Command frost-signer runs one signer's half of the protocol: polling
// an HTTP relay for coordinator messages and driving a local Signer
// state machine in response.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/frost-relay/frostrelay/internal/config"
	"github.com/frost-relay/frostrelay/internal/obslog"
	"github.com/frost-relay/frostrelay/relay/client"
	"github.com/frost-relay/frostrelay/signer"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Value:   "conf/signer.toml",
	Usage:   "path to this signer's TOML configuration file",
}

var idFlag = &cli.UintFlag{
	Name:     "id",
	Required: true,
	Usage:    "this signer's id within the directory",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "enable debug logging",
}

func main() {
	app := &cli.App{
		Name:  "frost-signer",
		Usage: "run a signer's half of a frost protocol round",
		Commands: []*cli.Command{
			runCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		obslog.Default().Error("frost-signer failed", "err", err)
		os.Exit(1)
	}
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "start this signer and poll the relay until interrupted",
	Flags: []cli.Flag{configFlag, idFlag, verboseFlag},
	Action: func(c *cli.Context) error {
		level := obslog.InfoLevel
		if c.Bool(verboseFlag.Name) {
			level = obslog.DebugLevel
		}
		log := obslog.Init(level, true).Named("signer")

		signerID := uint32(c.Uint(idFlag.Name))

		cfg, err := config.Load(c.String(configFlag.Name))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dir, err := cfg.Directory()
		if err != nil {
			return fmt.Errorf("build directory: %w", err)
		}
		netKey, err := cfg.NetworkKey()
		if err != nil {
			return fmt.Errorf("load network key: %w", err)
		}

		ownedKeyIDs, ok := cfg.SignerKeyIDs[signerID]
		if !ok {
			return fmt.Errorf("signer %d owns no key ids in config", signerID)
		}

		relayClient := client.New(cfg.HTTPRelayURL)
		readerID := fmt.Sprintf("signer-%d", signerID)
		poller := client.NewPoller(relayClient, readerID, dir, 128)
		sender := client.NewSender(relayClient, netKey)

		s := signer.New(signerID, ownedKeyIDs, cfg.KeysThreshold, cfg.TotalKeys, dir, netKey)
		runner := signer.NewRunner(s, poller, sender)

		ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		go poller.Run(ctx)

		log.Info("signer started", "signer_id", signerID, "owned_key_ids", ownedKeyIDs)
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("runner: %w", err)
		}
		return nil
	},
}
