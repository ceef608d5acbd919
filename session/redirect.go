package session

const (
	RouteHome      = "/"
	RouteLogin     = "/login"
	RouteSignup    = "/signup"
	RouteDashboard = "/dashboard"
)

// Redirect decides navigation for a state transition, given the route the
// client is currently on. It is pure: the caller performs the actual
// navigation. No redirect is ever issued while the session is still
// Unknown, so the initial load cannot flash the wrong view.
func Redirect(prev, next State, route string) (string, bool) {
	if next == Unknown {
		return "", false
	}
	switch next {
	case Authenticated:
		if isEntryRoute(route) {
			return RouteDashboard, true
		}
	case Unauthenticated:
		if route != RouteLogin && route != RouteSignup {
			return RouteLogin, true
		}
	}
	return "", false
}

func isEntryRoute(route string) bool {
	return route == RouteHome || route == RouteLogin || route == RouteSignup
}
