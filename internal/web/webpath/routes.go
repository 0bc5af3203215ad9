package webpath

const (
	Health = "/health"

	Users = "/users"
	User  = Users + "/:id"

	Auth  = "/auth"
	Login = Auth + "/login"
)

func Path() map[string]string {
	return map[string]string{
		"Health": Health,
		"Users":  Users,
		"User":   User,
		"Login":  Login,
	}
}
