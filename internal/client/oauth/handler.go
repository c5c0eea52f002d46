package oauth

import (
	"html/template"
	"net/http"
)

// CallbackPattern is the loopback route the authority redirects back to.
const CallbackPattern = "GET /auth/callback/{provider}"

var resultPage = template.Must(template.New("result").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>SalonMate sign-in</title></head>
<body>
{{if .OK}}<h1>Signed in</h1>
<p>You are signed in with {{.Provider}}. You can close this window.</p>
{{else}}<h1>Sign-in failed</h1>
<p>{{.Message}}</p>
<p><a href="{{.LoginRoute}}">Back to login</a></p>
{{end}}</body>
</html>
`))

type resultView struct {
	OK         bool
	Provider   string
	Message    string
	LoginRoute string
}

// CallbackHandler serves CallbackPattern. Each landing runs Complete and
// renders the outcome; onDone, when non-nil, receives the finished flow.
func (c *Controller) CallbackHandler(onDone func(*Flow)) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPattern, func(w http.ResponseWriter, r *http.Request) {
		f := c.Complete(r.Context(), r.PathValue("provider"), r.URL.Query())

		view := resultView{
			OK:         f.State() == Authenticated,
			Provider:   f.Provider,
			Message:    f.Message(),
			LoginRoute: c.loginRoute,
		}
		status := http.StatusOK
		if !view.OK {
			status = http.StatusBadRequest
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		if err := resultPage.Execute(w, view); err != nil {
			c.logger.Error(r.Context(), "render oauth result", "error", err)
		}

		if onDone != nil {
			onDone(f)
		}
	})
	return mux
}
