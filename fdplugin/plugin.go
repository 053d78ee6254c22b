// Package fdplugin lets the fdlayout CLI run layout engines bundled with the
// binary or provided by external plugin binaries.
//
// Binary plugins are stored in $PATH with the prefix fdplugin-*. i.e the binary for
// force might be fdplugin-force. See ListPlugins() below.
package fdplugin

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xexec"
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/fdlayout/fdgraph"
	"oss.terrastruct.com/fdlayout/lib/log"
)

// plugins contains the bundled plugins.
//
// See plugin_* files for the plugins available for bundling.
var plugins []Plugin

type PluginSpecificFlag struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Default interface{} `json:"default"`
	Usage   string      `json:"usage"`
	// Must match the json tag in the plugin's opts
	Tag string `json:"tag"`
}

// AddToOpts registers f on opts. Unknown types are ignored.
func (f *PluginSpecificFlag) AddToOpts(opts *xmain.Opts) {
	switch f.Type {
	case "string":
		s, _ := f.Default.(string)
		opts.String("", f.Name, "", s, f.Usage)
	case "int64":
		opts.Int64("", f.Name, "", int64(numberDefault(f.Default)), f.Usage)
	case "float64":
		opts.Float64("", f.Name, "", numberDefault(f.Default), f.Usage)
	}
}

// numberDefault reads a numeric default that is either set in Go or came back from
// a binary plugin as json, where every number is a float64.
func numberDefault(v interface{}) float64 {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}

type Plugin interface {
	// Info returns the current info information of the plugin.
	Info(context.Context) (*PluginInfo, error)

	Flags(context.Context) ([]PluginSpecificFlag, error)

	// HydrateOpts receives the values of the plugin's flags as a json object keyed
	// by PluginSpecificFlag.Tag.
	HydrateOpts([]byte) error

	// Layout runs the plugin's layout algorithm on the input graph, writing
	// positions, link points and label positions into it.
	Layout(context.Context, *fdgraph.Graph) error
}

// PluginInfo is the current info information of a plugin.
// note: The two fields Type and Path are not set by the plugin
// itself but only in ListPlugins.
type PluginInfo struct {
	Name      string `json:"name"`
	ShortHelp string `json:"shortHelp"`
	LongHelp  string `json:"longHelp"`

	// Set to bundled when returning from the plugin.
	// execPlugin will set to binary when used.
	// bundled | binary
	Type string `json:"type"`
	// If Type == binary then this contains the absolute path to the binary.
	Path string `json:"path"`

	Features []PluginFeature `json:"features"`
}

const binaryPrefix = "fdplugin-"

// ListPlugins returns the bundled plugins followed by the binary plugins found in
// $PATH. A binary plugin with the name of a bundled one is skipped, as is one that
// fails to report its info.
func ListPlugins(ctx context.Context) ([]Plugin, error) {
	// Bundled plugins are copied so that HydrateOpts on one run does not leak into
	// another.
	ps := make([]Plugin, 0, len(plugins))
	for _, p := range plugins {
		if c, ok := p.(interface{ clone() Plugin }); ok {
			p = c.clone()
		}
		ps = append(ps, p)
	}
	names := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		info, err := p.Info(ctx)
		if err != nil {
			return nil, err
		}
		names[strings.ToLower(info.Name)] = struct{}{}
	}

	matches, err := xexec.SearchPath(binaryPrefix)
	if err != nil {
		return nil, err
	}
	for _, path := range matches {
		p := &execPlugin{path: path}
		info, err := p.Info(ctx)
		if err != nil {
			log.Warn(ctx, "ignoring broken layout plugin", slog.F("path", path), slog.Error(err))
			continue
		}
		name := strings.ToLower(info.Name)
		if _, ok := names[name]; ok {
			continue
		}
		names[name] = struct{}{}
		ps = append(ps, p)
	}
	return ps, nil
}

func ListPluginInfos(ctx context.Context, ps []Plugin) ([]*PluginInfo, error) {
	infos := make([]*PluginInfo, 0, len(ps))
	for _, p := range ps {
		info, err := p.Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// FindPlugin finds the plugin with the given name, case insensitively, among ps.
// It returns exec.ErrNotFound if there is none.
func FindPlugin(ctx context.Context, ps []Plugin, name string) (Plugin, error) {
	for _, p := range ps {
		info, err := p.Info(ctx)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(info.Name, name) {
			return p, nil
		}
	}
	return nil, exec.ErrNotFound
}

// ListPluginFlags returns the flags of every plugin in ps. Plugins may share a flag
// by name, it is only listed once.
func ListPluginFlags(ctx context.Context, ps []Plugin) ([]PluginSpecificFlag, error) {
	var out []PluginSpecificFlag
	seen := make(map[string]struct{})
	for _, p := range ps {
		flags, err := p.Flags(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range flags {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			out = append(out, f)
		}
	}

	return out, nil
}

// HydratePluginOpts collects the parsed values of plugin's flags into a json object
// keyed by tag and hands it to plugin.HydrateOpts.
func HydratePluginOpts(ctx context.Context, ms *xmain.State, plugin Plugin) error {
	flags, err := plugin.Flags(ctx)
	if err != nil {
		return err
	}
	opts := make(map[string]interface{}, len(flags))
	for _, f := range flags {
		var val interface{}
		switch f.Type {
		case "string":
			val, err = ms.Opts.Flags.GetString(f.Name)
		case "int64":
			val, err = ms.Opts.Flags.GetInt64(f.Name)
		case "float64":
			val, err = ms.Opts.Flags.GetFloat64(f.Name)
		default:
			continue
		}
		if err != nil {
			// not registered on this flag set
			continue
		}
		opts[f.Tag] = val
	}

	b, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	return plugin.HydrateOpts(b)
}
