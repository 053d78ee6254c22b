package fdplugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/fdlayout/fdgraph"
	"oss.terrastruct.com/fdlayout/lib/log"
)

// Serve returns a xmain.RunFunc that makes p available as a binary plugin. It
// answers the subcommands execPlugin sends: info, flags and layout.
//
// cmd/fdplugin-force serves the bundled force engine this way.
func Serve(p Plugin) xmain.RunFunc {
	return func(ctx context.Context, ms *xmain.State) error {
		ctx = log.WithDefault(ctx)
		if !ms.Opts.Flags.Parsed() {
			helped, err := parsePluginFlags(ctx, p, ms)
			if err != nil || helped {
				return err
			}
		}

		args := ms.Opts.Flags.Args()
		if len(args) < 1 {
			return xmain.UsageErrorf("expected first argument to be subcmd name")
		}
		if err := HydratePluginOpts(ctx, ms, p); err != nil {
			return err
		}

		switch args[0] {
		case "info":
			info, err := p.Info(ctx)
			if err != nil {
				return err
			}
			return writeJSON(ms, info)
		case "flags":
			fs, err := p.Flags(ctx)
			if err != nil {
				return err
			}
			return writeJSON(ms, fs)
		case "layout":
			return serveLayout(ctx, p, ms)
		default:
			return xmain.UsageErrorf("unrecognized command: %s", args[0])
		}
	}
}

// parsePluginFlags registers the flags of p and parses the arguments. On --help it
// prints the long help of p and reports helped.
func parsePluginFlags(ctx context.Context, p Plugin, ms *xmain.State) (helped bool, _ error) {
	fs, err := p.Flags(ctx)
	if err != nil {
		return false, err
	}
	for _, f := range fs {
		f.AddToOpts(ms.Opts)
	}

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if errors.Is(err, pflag.ErrHelp) {
		info, err := p.Info(ctx)
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(ms.Stdout, info.LongHelp)
		return true, err
	}
	if err != nil {
		return false, xmain.UsageErrorf("failed to parse flags: %v", err)
	}
	return false, nil
}

func serveLayout(ctx context.Context, p Plugin, ms *xmain.State) error {
	in, err := io.ReadAll(ms.Stdin)
	if err != nil {
		return err
	}
	g := &fdgraph.Graph{}
	if err := fdgraph.DeserializeGraph(in, g); err != nil {
		return fmt.Errorf("failed to unmarshal input to graph: %w", err)
	}
	if err := p.Layout(ctx, g); err != nil {
		return err
	}
	out, err := fdgraph.SerializeGraph(g)
	if err != nil {
		return err
	}
	_, err = ms.Stdout.Write(out)
	return err
}

func writeJSON(ms *xmain.State, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = ms.Stdout.Write(b)
	return err
}
