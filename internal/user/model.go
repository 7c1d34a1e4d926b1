package user

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleManager  Role = "Manager"
	RoleAdmin    Role = "Admin"
)

// ParseRole maps a string onto a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleManager, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type User struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Role      Role   `json:"role"`
	Address   string `json:"address"`
	Birthdate string `json:"birthdate"`
}
