package model

// Group is every record submitted under one risk-percentage key.
type Group struct {
	RiskPercentage string
	Records        []Record
}

// Groups is the whole store content in store key order.
type Groups []Group

// Find returns the group for risk, if present.
func (gs Groups) Find(risk string) (Group, bool) {
	for _, g := range gs {
		if g.RiskPercentage == risk {
			return g, true
		}
	}
	return Group{}, false
}

// TotalRecords counts records across all groups.
func (gs Groups) TotalRecords() int {
	n := 0
	for _, g := range gs {
		n += len(g.Records)
	}
	return n
}

// GroupsBuilder assembles Groups preserving first-seen key order.
type GroupsBuilder struct {
	groups Groups
	index  map[string]int
}

// NewGroupsBuilder returns an empty builder.
func NewGroupsBuilder() *GroupsBuilder {
	return &GroupsBuilder{index: make(map[string]int)}
}

// Add appends records to the group for risk, creating it on first use.
// Calling Add with no records still registers the key.
func (b *GroupsBuilder) Add(risk string, recs ...Record) {
	i, ok := b.index[risk]
	if !ok {
		i = len(b.groups)
		b.index[risk] = i
		b.groups = append(b.groups, Group{RiskPercentage: risk, Records: []Record{}})
	}
	b.groups[i].Records = append(b.groups[i].Records, recs...)
}

// Groups returns the assembled groups. The builder must not be reused.
func (b *GroupsBuilder) Groups() Groups {
	if b.groups == nil {
		return Groups{}
	}
	return b.groups
}
