package fdplugin

import (
	"context"
	"encoding/json"
	"strconv"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/fdlayout/fdgraph"
	"oss.terrastruct.com/fdlayout/fdlayouts"
	"oss.terrastruct.com/fdlayout/fdlayouts/fdforce"
	"oss.terrastruct.com/fdlayout/lib/log"
)

var ForcePlugin = forcePlugin{}

func init() {
	plugins = append(plugins, &ForcePlugin)
}

// ForceOpts are the options of the force plugin set from the command line.
type ForceOpts struct {
	// OptimalLinkLength, when positive, is used for graphs that do not set
	// fdforce.OptimalLinkLengthAttribute themselves.
	OptimalLinkLength int64 `json:"optimalLinkLength"`
}

var DefaultForceOpts = ForceOpts{
	OptimalLinkLength: 0,
}

type forcePlugin struct {
	opts *ForceOpts
}

func (p *forcePlugin) clone() Plugin {
	c := *p
	return &c
}

func (p *forcePlugin) Flags(context.Context) ([]PluginSpecificFlag, error) {
	return []PluginSpecificFlag{
		{
			Name:    "force-link-length",
			Type:    "int64",
			Default: DefaultForceOpts.OptimalLinkLength,
			Usage:   "optimal link length of the force layout. 0 derives it from the node sizes.",
			Tag:     "optimalLinkLength",
		},
	}, nil
}

func (p *forcePlugin) HydrateOpts(opts []byte) error {
	if opts != nil {
		var forceOpts ForceOpts
		err := json.Unmarshal(opts, &forceOpts)
		if err != nil {
			return xmain.UsageErrorf("non-force layout options given for force")
		}

		p.opts = &forceOpts
	}
	return nil
}

func (p *forcePlugin) Info(ctx context.Context) (*PluginInfo, error) {
	opts := xmain.NewOpts(nil, nil)
	flags, err := p.Flags(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range flags {
		f.AddToOpts(opts)
	}

	return &PluginInfo{
		Name:      "force",
		Type:      "bundled",
		Features:  []PluginFeature{CONTAINERS, CONNECTOR_OFFSETS, DESCENDANT_LINKS},
		ShortHelp: "Fruchterman-Reingold force directed layout.",
		LongHelp: `force places nodes with a Fruchterman-Reingold simulation: nodes repel each other,
links pull their ends together and a weak gravity keeps the graph around the origin.
Links are drawn as straight segments between node boundaries.
Containers are laid out from the inside out and sized to fit their children.

The optimal link length can also be set per graph with the "optimalLinkLength" attribute.

Flags correspond to the following environment variables and attributes:

` + opts.Defaults(),
	}, nil
}

func (p *forcePlugin) Layout(ctx context.Context, g *fdgraph.Graph) error {
	optsCopy := DefaultForceOpts
	if p.opts != nil {
		optsCopy = *p.opts
	}
	var defaults map[string]string
	if optsCopy.OptimalLinkLength > 0 {
		defaults = map[string]string{
			fdforce.OptimalLinkLengthAttribute: strconv.FormatInt(optsCopy.OptimalLinkLength, 10),
		}
		log.Debug(ctx, "using optimal link length from flags where the graph sets none", slog.F("optimalLinkLength", optsCopy.OptimalLinkLength))
	}
	return fdlayouts.LayoutNested(ctx, g, fdforce.Layout, defaults)
}
