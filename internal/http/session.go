package http

import (
	"net/http"

	"energydash/internal/i18n"
	"energydash/internal/log"
	"energydash/internal/session"
)

// pageContext is what every localized handler works with. The session is
// locked for the lifetime of the handler.
type pageContext struct {
	Locale  string
	L       *i18n.Localizer
	Session *session.Session
}

// Base returns the URL prefix of the page's locale.
func (pc *pageContext) Base() string {
	return localeBase(pc.Locale)
}

type pageHandler func(w http.ResponseWriter, r *http.Request, pc *pageContext)

// withSession resolves the session cookie, creating a session and setting
// the cookie when needed, and runs h with the session locked.
func (s *Server) withSession(locale string, h pageHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}

		sess, created, err := s.sessions.GetOrCreate(r.Context(), id, locale)
		if err != nil {
			s.events.LogError(r.Context(), "Failed to start session", err,
				log.ComponentSession, log.OpCreate, log.NewFields().WithLocale(locale))
			l := s.bundle.Localizer(locale)
			InternalServerError(l.T("notice.commitFailed")).Write(w)
			return
		}
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				MaxAge:   int(s.opts.SessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   s.opts.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess.Lock()
		defer sess.Unlock()
		sess.Locale = locale

		h(w, r, &pageContext{
			Locale:  locale,
			L:       s.bundle.Localizer(locale),
			Session: sess,
		})
	}
}

// finish writes b. Successful non-htmx requests, i.e. plain form posts,
// are redirected back to the dashboard instead.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, pc *pageContext, b *HTMXResponseBuilder) {
	if !isHTMX(r) && b.StatusCode() < http.StatusBadRequest {
		http.Redirect(w, r, pc.Base()+"/", http.StatusSeeOther)
		return
	}
	b.Write(w)
}
