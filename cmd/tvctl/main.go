// Command tvctl is a terminal client for a running textvault server:
// list, read, write, rename and delete entries, and recover local
// snapshots.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/textvault/tvault/client"
	"github.com/ZanzyTHEbar/textvault/tvault/config"
	"github.com/ZanzyTHEbar/textvault/tvault/keys"
	"github.com/ZanzyTHEbar/textvault/tvault/snapshot"
)

const usage = `usage: tvctl [-config path] <command> [args]

commands:
  ls [prefix]          list keys, grouped by prefix
  cat <key>            print the body of key
  put <key> [file]     write file (or stdin) to key
  rm <key>             delete key
  mv <src> <dst>       rename src to dst
  snapshots <key>      list local snapshots of key
  restore <key>        print the newest local snapshot of key
`

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(cfg.Client.BaseURL, cfg.Client.Token)
	ctx := context.Background()

	if err := run(ctx, cfg, c, args, logger); err != nil {
		logger.Fatal().Err(err).Str("command", args[0]).Msg("command failed")
	}
}

func run(ctx context.Context, cfg *config.Config, c *client.Client, args []string, logger zerolog.Logger) error {
	switch cmd, rest := args[0], args[1:]; cmd {
	case "ls":
		prefix := ""
		if len(rest) > 0 {
			prefix = rest[0]
		}
		ks, err := c.ListKeys(ctx, prefix)
		if err != nil {
			return err
		}
		for _, g := range keys.GroupKeys(ks) {
			fmt.Printf("/%s\n", g.Prefix)
			for _, name := range g.Filenames {
				fmt.Printf("  - %s\n", name)
			}
		}
		return nil

	case "cat":
		if len(rest) != 1 {
			return fmt.Errorf("cat takes exactly one key")
		}
		body, err := c.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Print(body)
		return nil

	case "put":
		if len(rest) < 1 || len(rest) > 2 {
			return fmt.Errorf("put takes a key and an optional file")
		}
		var data []byte
		var err error
		if len(rest) == 2 {
			data, err = os.ReadFile(rest[1])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if err := c.Put(ctx, rest[0], string(data)); err != nil {
			return err
		}
		// Write-behind snapshot, same as the editor's save path.
		snaps, err := snapshot.NewStore(cfg.Snapshot.Dir, cfg.Snapshot.MaxEntries, logger)
		if err == nil {
			snaps.Save(rest[0], string(data))
			snaps.Close()
		}
		return nil

	case "rm":
		if len(rest) != 1 {
			return fmt.Errorf("rm takes exactly one key")
		}
		return c.Delete(ctx, rest[0])

	case "mv":
		if len(rest) != 2 {
			return fmt.Errorf("mv takes a source and a destination key")
		}
		return c.Move(ctx, rest[0], rest[1])

	case "snapshots":
		if len(rest) != 1 {
			return fmt.Errorf("snapshots takes exactly one key")
		}
		snaps, err := snapshot.NewStore(cfg.Snapshot.Dir, cfg.Snapshot.MaxEntries, logger)
		if err != nil {
			return err
		}
		entries, err := snaps.List(rest[0])
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.SavedAt.Format("2006-01-02 15:04:05.000"), e.Name)
		}
		return nil

	case "restore":
		if len(rest) != 1 {
			return fmt.Errorf("restore takes exactly one key")
		}
		snaps, err := snapshot.NewStore(cfg.Snapshot.Dir, cfg.Snapshot.MaxEntries, logger)
		if err != nil {
			return err
		}
		body, ok, err := snaps.Latest(rest[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no snapshot of %q", rest[0])
		}
		fmt.Print(body)
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
