package identity

import (
	"fmt"
	"net/http"
)

// CallbackHandler serves the redirect URL for a local sign-in. done receives the
// outcome of every callback that carried a code or an error.
func CallbackHandler(gate *Gate, done func(error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue covers both query and form_post responses
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		if errorParam != "" {
			err := fmt.Errorf("authorization failed: %s - %s", errorParam, errorDesc)
			http.Error(w, err.Error(), http.StatusBadRequest)
			done(err)
			return
		}

		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		if err := gate.Callback(r.Context(), code, state); err != nil {
			http.Error(w, "Sign-in failed: "+err.Error(), http.StatusUnauthorized)
			done(err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
		done(nil)
	}
}
