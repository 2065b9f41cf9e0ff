// Package navigation 根据角色计算可用的导航入口
// 只返回数据，不负责页面渲染
package navigation

// Role 用户角色
type Role string

const (
	RoleMember Role = "member" // 普通销售成员
	RoleLeader Role = "leader" // 有下级团队的成员
	RoleAdmin  Role = "admin"  // 管理员
)

// Valid 判断角色是否已定义
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleLeader, RoleAdmin:
		return true
	}
	return false
}

// Permission 权限
type Permission string

const (
	PermViewDashboard   Permission = "dashboard:view"
	PermManageClients   Permission = "clients:manage"
	PermManageContracts Permission = "contracts:manage"
	PermViewTeam        Permission = "team:view"
	PermInviteMembers   Permission = "team:invite"
	PermViewLevels      Permission = "levels:view"
	PermViewCommissions Permission = "commissions:view"
	PermAdmin           Permission = "admin"
)

// Entry 导航入口
type Entry struct {
	Key        string     `json:"key"`
	Title      string     `json:"title"`
	Path       string     `json:"path"`
	Icon       string     `json:"icon"`
	Permission Permission `json:"-"`
}

// entries 全部导航入口，顺序即展示顺序
var entries = []Entry{
	{Key: "dashboard", Title: "业绩看板", Path: "/dashboard", Icon: "home", Permission: PermViewDashboard},
	{Key: "clients", Title: "客户", Path: "/clients", Icon: "people", Permission: PermManageClients},
	{Key: "contracts", Title: "合同", Path: "/contracts", Icon: "document", Permission: PermManageContracts},
	{Key: "team", Title: "我的团队", Path: "/team", Icon: "git-network", Permission: PermViewTeam},
	{Key: "levels", Title: "职级说明", Path: "/levels", Icon: "trophy", Permission: PermViewLevels},
	{Key: "commissions", Title: "佣金", Path: "/commissions", Icon: "cash", Permission: PermViewCommissions},
	{Key: "admin", Title: "后台管理", Path: "/admin", Icon: "settings", Permission: PermAdmin},
}

// PermissionSet 权限集合
type PermissionSet map[Permission]struct{}

// Has 判断是否拥有权限
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func newSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// PermissionsFor 返回角色拥有的权限，未知角色没有任何权限
func PermissionsFor(role Role) PermissionSet {
	member := []Permission{
		PermViewDashboard,
		PermManageClients,
		PermManageContracts,
		PermInviteMembers,
		PermViewLevels,
		PermViewCommissions,
	}
	switch role {
	case RoleMember:
		return newSet(member...)
	case RoleLeader:
		return newSet(append(member, PermViewTeam)...)
	case RoleAdmin:
		return newSet(append(member, PermViewTeam, PermAdmin)...)
	}
	return newSet()
}

// EntriesFor 返回角色可见的导航入口
func EntriesFor(role Role) []Entry {
	return EntriesForPermissions(PermissionsFor(role))
}

// EntriesForPermissions 返回权限集合可见的导航入口
func EntriesForPermissions(perms PermissionSet) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if perms.Has(e.Permission) {
			out = append(out, e)
		}
	}
	return out
}
