package kinds

import "github.com/openziti/rbrowse/kernel/model"

func init() {
	RegisterKind(model.KindKubeCluster, func() *Descriptor {
		return &Descriptor{
			Kind:        model.KindKubeCluster,
			DefaultSort: byName(),
			Columns: []*Column{
				MustColumn("Name", "$.name"),
				MustColumn("Labels", "$.labels"),
			},
			Capabilities: Capabilities{ReusableCursors: true, Sortable: true},
		}
	})
}
