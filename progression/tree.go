package progression

// Node 团队树中的一个成员，ParentID 为空或不在节点集合中时视为根节点
type Node struct {
	ID              string
	ParentID        string
	Name            string
	PersonalRevenue float64
}

// Tree 自底向上定级后的团队树
type Tree struct {
	eval     *Evaluator
	members  map[string]TeamMember
	children map[string][]string
	roots    []string
}

// BuildTree 根据扁平节点列表构建团队树
// 对每个节点先处理全部下级，再用下级快照计算本人的团队业绩和职级
func (e *Evaluator) BuildTree(nodes []Node) (*Tree, error) {
	byID := make(map[string]Node, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			return nil, invalid("nodes", "第 %d 个节点缺少ID", i+1)
		}
		if _, dup := byID[n.ID]; dup {
			return nil, invalid("nodes", "节点 %s 重复出现", n.ID)
		}
		if !validAmount(n.PersonalRevenue) {
			return nil, invalid("nodes", "节点 %s 的个人业绩必须为非负数", n.ID)
		}
		byID[n.ID] = n
	}

	t := &Tree{
		eval:     e,
		members:  make(map[string]TeamMember, len(nodes)),
		children: make(map[string][]string),
	}
	// 保持输入顺序，保证结果稳定
	for _, n := range nodes {
		if n.ParentID == n.ID {
			return nil, invalid("nodes", "节点 %s 的上级不能是自己", n.ID)
		}
		if _, ok := byID[n.ParentID]; ok {
			t.children[n.ParentID] = append(t.children[n.ParentID], n.ID)
		} else {
			t.roots = append(t.roots, n.ID)
		}
	}

	for _, root := range t.roots {
		if err := t.settle(root, byID); err != nil {
			return nil, err
		}
	}

	// 从根节点无法到达的节点一定处于循环引用中
	if len(t.members) != len(byID) {
		for _, n := range nodes {
			if _, ok := t.members[n.ID]; !ok {
				return nil, invalid("nodes", "节点 %s 处于循环上下级关系中", n.ID)
			}
		}
	}
	return t, nil
}

// settle 递归计算节点及其全部下级
func (t *Tree) settle(id string, byID map[string]Node) error {
	node := byID[id]
	group := node.PersonalRevenue
	for _, child := range t.children[id] {
		if err := t.settle(child, byID); err != nil {
			return err
		}
		group += t.members[child].GroupRevenue
	}

	in := MemberInputs{PersonalRevenue: node.PersonalRevenue, GroupRevenue: roundCents(group)}
	downline := t.Descendants(id)
	if err := validateInputs(in, downline); err != nil {
		return err
	}
	level := t.eval.Level(in, downline)

	t.members[id] = TeamMember{
		ID:              id,
		Name:            node.Name,
		Level:           level,
		PersonalRevenue: node.PersonalRevenue,
		GroupRevenue:    in.GroupRevenue,
		Commission:      roundCents(node.PersonalRevenue * t.eval.table.Rate(level)),
	}
	return nil
}

// Member 返回节点快照
func (t *Tree) Member(id string) (TeamMember, bool) {
	m, ok := t.members[id]
	return m, ok
}

// Roots 返回根节点ID
func (t *Tree) Roots() []string {
	out := make([]string, len(t.roots))
	copy(out, t.roots)
	return out
}

// Children 返回直接下级快照
func (t *Tree) Children(id string) []TeamMember {
	out := make([]TeamMember, 0, len(t.children[id]))
	for _, child := range t.children[id] {
		out = append(out, t.members[child])
	}
	return out
}

// Descendants 按层次顺序返回全部直接和间接下级快照
func (t *Tree) Descendants(id string) []TeamMember {
	var out []TeamMember
	queue := append([]string(nil), t.children[id]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		out = append(out, t.members[current])
		queue = append(queue, t.children[current]...)
	}
	return out
}

// Evaluate 计算指定节点的看板指标
func (t *Tree) Evaluate(id string) (DashboardMetrics, error) {
	m, ok := t.members[id]
	if !ok {
		return DashboardMetrics{}, invalid("id", "节点 %s 不存在", id)
	}
	in := MemberInputs{PersonalRevenue: m.PersonalRevenue, GroupRevenue: m.GroupRevenue}
	return t.eval.Evaluate(in, t.Descendants(id))
}
