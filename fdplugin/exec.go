package fdplugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/fdlayout/fdgraph"
)

// execPlugin uses the binary at pathname with the plugin protocol to implement
// the Plugin interface.
//
// The layout plugin protocol works as follows.
//
// Info
// 	1. The binary is invoked with info as the first argument.
// 	2. The stdout of the binary is unmarshalled into PluginInfo.
//
// Flags
// 	1. The binary is invoked with flags as the first argument.
// 	2. The stdout of the binary is unmarshalled into []PluginSpecificFlag.
//
// Layout
// 	1. The binary is invoked with layout as the first argument, preceded by the
// 	   plugin's flags as hydrated by HydrateOpts, and the json serialized
// 	   fdgraph.Graph on stdin.
// 	2. The stdout of the binary is unmarshalled into a fdgraph.Graph
//
// If any errors occur the binary will exit with a non zero status code and write
// the error to stderr.
type execPlugin struct {
	path string
	opts map[string]interface{}
}

func (p *execPlugin) Info(ctx context.Context) (_ *PluginInfo, err error) {
	stdout, err := p.run(ctx, time.Second*10, nil, "info")
	if err != nil {
		return nil, err
	}

	var info PluginInfo
	err = json.Unmarshal(stdout, &info)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}

	info.Type = "binary"
	info.Path = p.path
	return &info, nil
}

func (p *execPlugin) Flags(ctx context.Context) (_ []PluginSpecificFlag, err error) {
	stdout, err := p.run(ctx, time.Second*10, nil, "flags")
	if err != nil {
		return nil, err
	}

	var flags []PluginSpecificFlag
	err = json.Unmarshal(stdout, &flags)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	return flags, nil
}

func (p *execPlugin) HydrateOpts(opts []byte) error {
	if opts == nil {
		return nil
	}
	var m map[string]interface{}
	err := json.Unmarshal(opts, &m)
	if err != nil {
		return err
	}
	p.opts = m
	return nil
}

func (p *execPlugin) Layout(ctx context.Context, g *fdgraph.Graph) error {
	graphBytes, err := fdgraph.SerializeGraph(g)
	if err != nil {
		return err
	}

	args, err := p.flagArgs(ctx)
	if err != nil {
		return err
	}
	args = append(args, "layout")

	stdout, err := p.run(ctx, time.Minute, graphBytes, args...)
	if err != nil {
		return err
	}
	err = fdgraph.DeserializeGraph(stdout, g)
	if err != nil {
		return fmt.Errorf("failed to unmarshal json: %w", err)
	}

	return nil
}

// flagArgs turns the hydrated opts back into flags of the binary.
func (p *execPlugin) flagArgs(ctx context.Context) ([]string, error) {
	if len(p.opts) == 0 {
		return nil, nil
	}
	flags, err := p.Flags(ctx)
	if err != nil {
		return nil, err
	}
	var args []string
	for _, f := range flags {
		v, ok := p.opts[f.Tag]
		if !ok {
			continue
		}
		args = append(args, fmt.Sprintf("--%s=%v", f.Name, v))
	}
	return args, nil
}

func (p *execPlugin) run(ctx context.Context, timeout time.Duration, stdin []byte, args ...string) (_ []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, p.path, args...)
	defer xdefer.Errorf(&err, "failed to run %v", cmd.Args)

	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	stdout, err := cmd.Output()
	if err != nil {
		ee := &exec.ExitError{}
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("%v\nstderr:\n%s", ee, ee.Stderr)
		}
		return nil, err
	}
	return stdout, nil
}
