package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const analyticsRealm = "Analytics Dashboard"

// dashboardAuth guards the report endpoints. Without a configured password
// the credential table stays empty and every request is refused.
func dashboardAuth(username, password string) func(http.Handler) http.Handler {
	creds := map[string]string{}
	if password != "" {
		creds[username] = password
	}
	return middleware.BasicAuth(analyticsRealm, creds)
}
