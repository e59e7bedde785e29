// Command frost-coordinator drives DKG and signing rounds against a
// signer set reachable through an HTTP relay.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/frost-relay/frostrelay/coordinator"
	"github.com/frost-relay/frostrelay/internal/config"
	"github.com/frost-relay/frostrelay/internal/obslog"
	"github.com/frost-relay/frostrelay/relay/client"
)

var configFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Value:   "conf/coordinator.toml",
	Usage:   "path to the coordinator's TOML configuration file",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "enable debug logging",
}

func main() {
	app := &cli.App{
		Name:  "frost-coordinator",
		Usage: "run DKG and signing rounds over a frost relay",
		Flags: []cli.Flag{configFlag, verboseFlag},
		Before: func(c *cli.Context) error {
			level := obslog.InfoLevel
			if c.Bool(verboseFlag.Name) {
				level = obslog.DebugLevel
			}
			obslog.Init(level, true)
			return nil
		},
		Commands: []*cli.Command{
			dkgCommand,
			signCommand,
			dkgSignCommand,
			aggregateKeyCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		obslog.Default().Error("frost-coordinator failed", "err", err)
		os.Exit(1)
	}
}

var dkgCommand = &cli.Command{
	Name:  "dkg",
	Usage: "run a fresh DKG round and print the resulting group public key",
	Action: func(c *cli.Context) error {
		coord, stop, err := buildCoordinator(c)
		if err != nil {
			return err
		}
		defer stop()
		if err := coord.RunDKG(c.Context); err != nil {
			return err
		}
		key, err := coord.AggregatePublicKey()
		if err != nil {
			return err
		}
		compressed := key.Compress()
		fmt.Println(hex.EncodeToString(compressed[:]))
		return nil
	},
}

var signCommand = &cli.Command{
	Name:      "sign",
	Usage:     "sign a message against the last DKG round's group key",
	ArgsUsage: "<message>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("sign: expected exactly one message argument")
		}
		coord, stop, err := buildCoordinator(c)
		if err != nil {
			return err
		}
		defer stop()
		sig, err := coord.Sign(c.Context, []byte(c.Args().First()))
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(sig.Bytes()))
		return nil
	},
}

var dkgSignCommand = &cli.Command{
	Name:      "dkg-sign",
	Usage:     "run a fresh DKG round and immediately sign a message against it",
	ArgsUsage: "<message>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("dkg-sign: expected exactly one message argument")
		}
		coord, stop, err := buildCoordinator(c)
		if err != nil {
			return err
		}
		defer stop()
		sig, err := coord.DkgSign(c.Context, []byte(c.Args().First()))
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(sig.Bytes()))
		return nil
	},
}

var aggregateKeyCommand = &cli.Command{
	Name:  "get-aggregate-public-key",
	Usage: "print the group public key from the last completed DKG round",
	Action: func(c *cli.Context) error {
		coord, stop, err := buildCoordinator(c)
		if err != nil {
			return err
		}
		defer stop()
		key, err := coord.AggregatePublicKey()
		if err != nil {
			return err
		}
		compressed := key.Compress()
		fmt.Println(hex.EncodeToString(compressed[:]))
		return nil
	},
}

func buildCoordinator(c *cli.Context) (*coordinator.Coordinator, func(), error) {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	dir, err := cfg.Directory()
	if err != nil {
		return nil, nil, fmt.Errorf("build directory: %w", err)
	}
	netKey, err := cfg.NetworkKey()
	if err != nil {
		return nil, nil, fmt.Errorf("load network key: %w", err)
	}

	relayClient := client.New(cfg.HTTPRelayURL)
	poller := client.NewPoller(relayClient, "coordinator", dir, 128)
	sender := client.NewSender(relayClient, netKey)

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Run(ctx)

	coord := coordinator.New(dir, sender, poller, cfg.TotalSigners, cfg.TotalKeys, cfg.KeysThreshold, cfg.RoundDeadline())
	stop := func() {
		cancel()
		time.Sleep(10 * time.Millisecond)
	}
	return coord, stop, nil
}
