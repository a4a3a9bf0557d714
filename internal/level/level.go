// Package level holds the closed access-level enumeration. The account
// row stores the level as a string code ("1", "2", "3", anything else is
// a plain employee); route configuration may also name levels
// symbolically. Both spellings resolve to the same enum before any
// comparison happens.
package level

type Level int

const (
	Pegawai Level = iota
	SuperAdmin
	AdminOpd
	AdminUpt
)

const (
	CodeSuperAdmin = "1"
	CodeAdminOpd   = "2"
	CodeAdminUpt   = "3"
)

var names = map[Level]string{
	Pegawai:    "pegawai",
	SuperAdmin: "superadmin",
	AdminOpd:   "admin_opd",
	AdminUpt:   "admin_upt",
}

var byName = map[string]Level{
	"pegawai":    Pegawai,
	"superadmin": SuperAdmin,
	"admin_opd":  AdminOpd,
	"admin_upt":  AdminUpt,
}

// FromCode maps a stored level code to the enum. Unknown codes are
// plain employees.
func FromCode(code string) Level {
	switch code {
	case CodeSuperAdmin:
		return SuperAdmin
	case CodeAdminOpd:
		return AdminOpd
	case CodeAdminUpt:
		return AdminUpt
	default:
		return Pegawai
	}
}

func (l Level) Code() string {
	switch l {
	case SuperAdmin:
		return CodeSuperAdmin
	case AdminOpd:
		return CodeAdminOpd
	case AdminUpt:
		return CodeAdminUpt
	default:
		return "4"
	}
}

func (l Level) String() string { return names[l] }

func (l Level) IsAdmin() bool {
	return l == SuperAdmin || l == AdminOpd || l == AdminUpt
}

// Resolve accepts either a numeric code or a symbolic name.
func Resolve(value string) Level {
	if lv, ok := byName[value]; ok {
		return lv
	}
	return FromCode(value)
}

// ResolveSet turns a route's required-level list into a membership set.
// An empty list means any authenticated identity.
func ResolveSet(values []string) map[Level]bool {
	set := make(map[Level]bool, len(values))
	for _, v := range values {
		set[Resolve(v)] = true
	}
	return set
}
