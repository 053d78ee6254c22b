package fdcli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"cdr.dev/slog"
	"github.com/spf13/pflag"

	"oss.terrastruct.com/util-go/go2"
	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/fdlayout/fdgraph"
	"oss.terrastruct.com/fdlayout/fdplugin"
	"oss.terrastruct.com/fdlayout/lib/log"
	"oss.terrastruct.com/fdlayout/lib/version"
)

func Run(ctx context.Context, ms *xmain.State) (err error) {
	ctx = log.WithDefault(ctx)
	// These should be kept up-to-date with the help text in help.go.
	// xmain.Opts.Defaults pads the $ENV column from the widest flag, so no flag may
	// carry a longer environment variable than the widest one (--timeout seconds).
	watchFlag, err := ms.Opts.Bool("FDLAYOUT_WATCH", "watch", "w", false, "watch for changes to input and lay it out again.")
	if err != nil {
		return err
	}
	debugFlag, err := ms.Opts.Bool("DEBUG", "debug", "d", false, "print debug logs.")
	if err != nil {
		ms.Log.Warn.Printf("Invalid DEBUG flag value ignored")
		debugFlag = go2.Pointer(false)
	}
	layoutFlag := ms.Opts.String("FDLAYOUT_LAYOUT", "layout", "l", "force", `the layout engine used`)
	timeoutFlag, err := ms.Opts.Int64("FDLAYOUT_TIMEOUT", "timeout", "", 120, "the maximum number of `seconds` that a layout runs for before timing out and exiting.")
	if err != nil {
		return err
	}
	groupColorsFlag, err := ms.Opts.Bool("FDLAYOUT_COLORS", "group-colors", "", true, "give nodes without a color a color derived from their group.")
	if err != nil {
		return err
	}
	versionFlag, err := ms.Opts.Bool("", "version", "v", false, "get the version")
	if err != nil {
		return err
	}

	plugins, err := fdplugin.ListPlugins(ctx)
	if err != nil {
		return err
	}
	err = populateLayoutOpts(ctx, ms, plugins)
	if err != nil {
		return err
	}

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if !errors.Is(err, pflag.ErrHelp) && err != nil {
		return xmain.UsageErrorf("failed to parse flags: %v", err)
	}

	if errors.Is(err, pflag.ErrHelp) {
		help(ms)
		return nil
	}

	if len(ms.Opts.Flags.Args()) > 0 {
		switch ms.Opts.Flags.Arg(0) {
		case "layout":
			return layoutCmd(ctx, ms, plugins)
		case "version":
			if len(ms.Opts.Flags.Args()) > 1 {
				return xmain.UsageErrorf("version subcommand accepts no arguments")
			}
			fmt.Fprintln(ms.Stdout, version.Version)
			return nil
		}
	}

	if *debugFlag {
		ctx = log.Leveled(ctx, slog.LevelDebug)
		ms.Env.Setenv("DEBUG", "1")
	}

	if len(ms.Opts.Flags.Args()) == 0 {
		if *versionFlag {
			fmt.Fprintln(ms.Stdout, version.Version)
			return nil
		}
		help(ms)
		return nil
	} else if len(ms.Opts.Flags.Args()) >= 3 {
		return xmain.UsageErrorf("too many arguments passed")
	}

	inputPath := ms.Opts.Flags.Arg(0)
	var outputPath string
	if len(ms.Opts.Flags.Args()) >= 2 {
		outputPath = ms.Opts.Flags.Arg(1)
	} else {
		if inputPath == "-" {
			outputPath = "-"
		} else {
			outputPath = renameExt(inputPath, ".layout.json")
		}
	}
	if inputPath != "-" {
		inputPath = ms.AbsPath(inputPath)
	}
	if outputPath != "-" {
		outputPath = ms.AbsPath(outputPath)
		if inputPath == outputPath {
			return xmain.UsageErrorf("output path cannot be the same as the input path: %s", ms.HumanPath(inputPath))
		}
	}

	plugin, err := fdplugin.FindPlugin(ctx, plugins, *layoutFlag)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return layoutNotFound(ctx, plugins, *layoutFlag)
		}
		return err
	}
	err = fdplugin.HydratePluginOpts(ctx, ms, plugin)
	if err != nil {
		return err
	}
	pinfo, err := plugin.Info(ctx)
	if err != nil {
		return err
	}
	ms.Log.Debug.Printf("using layout engine %s (%s)", pinfo.Name, pinfo.Type)

	lf := &layoutFile{
		ms:          ms,
		plugin:      plugin,
		pinfo:       pinfo,
		groupColors: *groupColorsFlag,
		timeout:     time.Duration(*timeoutFlag) * time.Second,
		inputPath:   inputPath,
		outputPath:  outputPath,
	}

	if *watchFlag {
		if inputPath == "-" {
			return xmain.UsageErrorf("-w[atch] cannot be combined with reading input from stdin")
		}
		w, err := newWatcher(ctx, ms, watcherOpts{
			inputPath:  inputPath,
			outputPath: outputPath,
			layout:     lf.run,
		})
		if err != nil {
			return err
		}
		return w.run()
	}

	err = lf.run(ctx)
	if err != nil {
		return fmt.Errorf("failed to lay out %s: %w", ms.HumanPath(inputPath), err)
	}
	return nil
}

// layoutFile lays out one input file with a plugin and writes the result.
type layoutFile struct {
	ms          *xmain.State
	plugin      fdplugin.Plugin
	pinfo       *fdplugin.PluginInfo
	groupColors bool
	timeout     time.Duration

	inputPath  string
	outputPath string
}

func (lf *layoutFile) run(ctx context.Context) error {
	start := time.Now()

	input, err := lf.ms.ReadPath(lf.inputPath)
	if err != nil {
		return err
	}
	g, err := lf.load(input)
	if err != nil {
		return err
	}

	ctx, cancel := log.WithTimeout(ctx, lf.timeout)
	defer cancel()

	lf.ms.Log.Debug.Printf("running layout engine %s on %d nodes and %d links...", lf.pinfo.Name, len(g.Nodes), len(g.Links))
	err = lf.plugin.Layout(ctx, g)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("layout timed out after %s, see --timeout: %w", lf.timeout, err)
		}
		return err
	}

	out, err := fdgraph.Encode(g)
	if err != nil {
		return err
	}
	err = Write(lf.ms, lf.outputPath, out)
	if err != nil {
		return err
	}
	if lf.outputPath != "-" {
		lf.ms.Log.Success.Printf("successfully laid out %s to %s in %s", lf.ms.HumanPath(lf.inputPath), lf.ms.HumanPath(lf.outputPath), time.Since(start))
	}
	return nil
}

// load decodes, validates and prepares the input graph for lf's plugin.
func (lf *layoutFile) load(input []byte) (_ *fdgraph.Graph, err error) {
	defer xdefer.Errorf(&err, "invalid input")

	format := fdgraph.SniffFormat(input)
	if lf.inputPath != "-" {
		format = fdgraph.FormatFromPath(lf.inputPath)
	}
	g, err := fdgraph.Decode(input, format)
	if err != nil {
		return nil, err
	}
	err = g.Validate()
	if err != nil {
		return nil, err
	}
	err = fdplugin.FeatureSupportCheck(lf.pinfo, g)
	if err != nil {
		return nil, err
	}
	if lf.groupColors {
		g.AssignGroupColors()
	}
	return g, nil
}

func renameExt(fp string, newExt string) string {
	ext := filepath.Ext(fp)
	if ext == "" {
		return fp + newExt
	} else {
		return strings.TrimSuffix(fp, ext) + newExt
	}
}

func populateLayoutOpts(ctx context.Context, ms *xmain.State, ps []fdplugin.Plugin) error {
	pluginFlags, err := fdplugin.ListPluginFlags(ctx, ps)
	if err != nil {
		return err
	}

	for _, f := range pluginFlags {
		f.AddToOpts(ms.Opts)
		// Only shown in the long help of each layout engine
		ms.Opts.Flags.MarkHidden(f.Name)
	}

	return nil
}

func Write(ms *xmain.State, path string, out []byte) error {
	if path == "-" {
		return ms.WritePath(path, out)
	}
	err := ms.AtomicWritePath(path, out)
	if err == nil {
		return nil
	}
	ms.Log.Debug.Printf("atomic write failed: %s, trying non-atomic write", err.Error())
	return ms.WritePath(path, out)
}
