package fdplugin

import (
	"fmt"

	"oss.terrastruct.com/fdlayout/fdgraph"
)

type PluginFeature string

// When this is true, nodes can be placed inside other nodes
const CONTAINERS PluginFeature = "containers"

// When this is true, links can extend past the node boundary with connector offsets
const CONNECTOR_OFFSETS PluginFeature = "connector_offsets"

// When this is true, containers can have links to their descendants
const DESCENDANT_LINKS PluginFeature = "descendant_links"

func FeatureSupportCheck(info *PluginInfo, g *fdgraph.Graph) error {
	// Older version of plugin. Skip checking.
	if info.Features == nil {
		return nil
	}

	featureMap := make(map[PluginFeature]struct{}, len(info.Features))
	for _, f := range info.Features {
		featureMap[f] = struct{}{}
	}

	if _, ok := featureMap[CONTAINERS]; !ok {
		for _, n := range g.Nodes {
			if n.Container != "" {
				return fmt.Errorf(`Node "%s" is inside container "%s", but layout engine "%s" does not support containers.`, n.ID, n.Container, info.Name)
			}
		}
	}

	for _, l := range g.Links {
		if l.StartConnectorOffset != 0 || l.EndConnectorOffset != 0 {
			if _, ok := featureMap[CONNECTOR_OFFSETS]; !ok {
				return fmt.Errorf(`Link "%s" has connector offsets, but layout engine "%s" does not support them.`, l.ID, info.Name)
			}
		}
	}

	if _, ok := featureMap[DESCENDANT_LINKS]; !ok {
		for _, l := range g.Links {
			start, end := g.Node(l.Start), g.Node(l.End)
			if start == nil || end == nil {
				continue
			}
			if !g.IsContainer(start) && !g.IsContainer(end) {
				continue
			}
			if start == end {
				return fmt.Errorf(`Link "%s" is a self loop on a container, but layout engine "%s" does not support this.`, l.ID, info.Name)
			}
			if g.IsDescendantOf(start, end.ID) || g.IsDescendantOf(end, start.ID) {
				return fmt.Errorf(`Link "%s" goes from a container to a descendant, but layout engine "%s" does not support this.`, l.ID, info.Name)
			}
		}
	}
	return nil
}
