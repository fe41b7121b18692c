package domain

// Role 封闭枚举，不单独建表
type Role string

const (
	RoleAdmin   Role = "Administrador"
	RoleAdvisor Role = "Asesor"
)

var Roles = []Role{RoleAdmin, RoleAdvisor}

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleAdvisor }

// ParseRole 未知角色返回 false
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Actor 已认证的调用方（来自 token claims）
type Actor struct {
	ID    uint
	Email string
	Role  Role
}
