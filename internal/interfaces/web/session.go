package web

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

const sessionName = "onereserve_session"

// Session is what a merchant login cookie carries.
type Session struct {
	UserID     string
	MerchantID string
}

type SessionManager struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewSessionManager signs with hashKey and encrypts with blockKey. secure
// marks cookies HTTPS-only.
func NewSessionManager(hashKey, blockKey []byte, secure bool) *SessionManager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(7 * 24 * 3600)
	return &SessionManager{sc: sc, secure: secure}
}

func (s *SessionManager) Set(w http.ResponseWriter, sess Session) error {
	value := map[string]string{"uid": sess.UserID, "mid": sess.MerchantID}
	encoded, err := s.sc.Encode(sessionName, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: encoded, Path: "/",
		HttpOnly: true, Secure: s.secure, SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, Secure: s.secure, SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionManager) Get(r *http.Request) (Session, bool) {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return Session{}, false
	}
	value := map[string]string{}
	if err := s.sc.Decode(sessionName, c.Value, &value); err != nil {
		return Session{}, false
	}
	sess := Session{UserID: value["uid"], MerchantID: value["mid"]}
	if sess.UserID == "" || sess.MerchantID == "" {
		return Session{}, false
	}
	return sess, true
}
