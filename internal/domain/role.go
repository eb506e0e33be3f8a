package domain

type Role string

const (
	RoleDriver Role = "driver"
	RoleRider  Role = "rider"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleRider, RoleAdmin:
		return true
	}
	return false
}

// DefaultName возвращает отображаемое имя, если клиент не прислал firstName.
func (r Role) DefaultName() string {
	switch r {
	case RoleDriver:
		return "Driver"
	case RoleRider:
		return "Rider"
	default:
		return "Admin"
	}
}
