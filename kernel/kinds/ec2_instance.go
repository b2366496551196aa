package kinds

import "github.com/openziti/rbrowse/kernel/model"

// EC2 next tokens are only honored by the request chain that issued them and
// DescribeInstances has no ordering, so the pager replays from the start.
func init() {
	RegisterKind(model.KindEC2Instance, func() *Descriptor {
		return &Descriptor{
			Kind:        model.KindEC2Instance,
			DefaultSort: byName(),
			Columns: []*Column{
				MustColumn("Instance", "$.id"),
				MustColumn("Name", "$.name"),
				MustColumn("Type", "$.attrs.instance_type"),
				MustColumn("State", "$.attrs.state"),
				MustColumn("Private IP", "$.attrs.private_ip"),
			},
			Capabilities: Capabilities{ReusableCursors: false, Sortable: false},
		}
	})
}
