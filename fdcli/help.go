package fdcli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/fdlayout/fdplugin"
	"oss.terrastruct.com/fdlayout/lib/version"
)

func help(ms *xmain.State) {
	fmt.Fprintf(ms.Stdout, `%[1]s %[2]s
Usage:
  %[1]s [--watch=false] [--layout=force] input.(json|yaml) [output.json]
  %[1]s layout [name]

%[1]s computes 2D positions for the nodes of input.(json|yaml) and straight
link routes between them, then writes the laid out graph as JSON to output.json.
It defaults to input.layout.json if an output path is not provided.

Use - to have %[1]s read from stdin or write to stdout.

Flags:
%[3]s

Subcommands:
  %[1]s layout - Lists available layout engine options with short help
  %[1]s layout [name] - Display long help for a particular layout engine, including its configuration options
  %[1]s version - Print the version
`, filepath.Base(ms.Name), version.Version, ms.Opts.Defaults())
}

func layoutCmd(ctx context.Context, ms *xmain.State, ps []fdplugin.Plugin) error {
	if len(ms.Opts.Flags.Args()) == 1 {
		return shortLayoutHelp(ctx, ms, ps)
	} else if len(ms.Opts.Flags.Args()) == 2 {
		return longLayoutHelp(ctx, ms, ps)
	} else {
		return pluginSubcommand(ctx, ms, ps)
	}
}

func shortLayoutHelp(ctx context.Context, ms *xmain.State, ps []fdplugin.Plugin) error {
	var pluginLines []string
	pinfos, err := fdplugin.ListPluginInfos(ctx, ps)
	if err != nil {
		return err
	}
	for _, p := range pinfos {
		var l string
		if p.Type == "bundled" {
			l = fmt.Sprintf("%s (bundled) - %s", p.Name, p.ShortHelp)
		} else {
			l = fmt.Sprintf("%s (%s) - %s", p.Name, humanPath(p.Path), p.ShortHelp)
		}
		pluginLines = append(pluginLines, l)
	}
	fmt.Fprintf(ms.Stdout, `Available layout engines found:

%s

Usage:
  To use a particular layout engine, set the environment variable FDLAYOUT_LAYOUT=[name] or flag --layout=[name].

Example:
  FDLAYOUT_LAYOUT=force %[2]s in.json out.json

Subcommands:
  %[2]s layout [layout name] - Display long help for a particular layout engine, including its configuration options
`, strings.Join(pluginLines, "\n"), filepath.Base(ms.Name))
	return nil
}

func longLayoutHelp(ctx context.Context, ms *xmain.State, ps []fdplugin.Plugin) error {
	layout := ms.Opts.Flags.Arg(1)
	plugin, err := fdplugin.FindPlugin(ctx, ps, layout)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return layoutNotFound(ctx, ps, layout)
		}
		return err
	}

	pinfo, err := plugin.Info(ctx)
	if err != nil {
		return err
	}

	plocation := pinfo.Type
	if pinfo.Type == "binary" {
		plocation = fmt.Sprintf("executable plugin at %s", humanPath(pinfo.Path))
	}

	if !strings.HasSuffix(pinfo.LongHelp, "\n") {
		pinfo.LongHelp += "\n"
	}
	fmt.Fprintf(ms.Stdout, `%s (%s):

%s`, pinfo.Name, plocation, pinfo.LongHelp)

	return nil
}

func layoutNotFound(ctx context.Context, ps []fdplugin.Plugin, layout string) error {
	pinfos, err := fdplugin.ListPluginInfos(ctx, ps)
	if err != nil {
		return err
	}
	var names []string
	for _, p := range pinfos {
		names = append(names, p.Name)
	}

	return xmain.UsageErrorf(`FDLAYOUT_LAYOUT "%s" is not bundled and could not be found in your $PATH as fdplugin-%s.
The available options are: %s. For details on each option, run "fdlayout layout".`,
		layout, layout, strings.Join(names, ", "))
}

// pluginSubcommand passes the remaining arguments to the plugin as if it was run
// as its own binary, e.g. fdlayout layout force info.
func pluginSubcommand(ctx context.Context, ms *xmain.State, ps []fdplugin.Plugin) error {
	layout := ms.Opts.Flags.Arg(1)
	plugin, err := fdplugin.FindPlugin(ctx, ps, layout)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return layoutNotFound(ctx, ps, layout)
		}
		return err
	}

	ms.Opts = xmain.NewOpts(ms.Env, ms.Opts.Flags.Args()[2:])
	return fdplugin.Serve(plugin)(ctx, ms)
}

func humanPath(fp string) string {
	if strings.HasPrefix(fp, os.Getenv("HOME")) {
		return filepath.Join("~", strings.TrimPrefix(fp, os.Getenv("HOME")))
	}
	return fp
}
