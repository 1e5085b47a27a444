package server

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/oklog/ulid/v2"

	"github.com/authdash/authdash/internal/authstate"
	"github.com/authdash/authdash/internal/provider"
	"github.com/authdash/authdash/internal/views"
)

const (
	sessionCookieName = "authdash_session"

	keyIDToken  = "id_token"
	keyUID      = "uid"
	keyDeviceID = "device_id"

	flashSuccess = "success"
	flashError   = "error"

	requestAuthKey = "auth"
)

// requestAuth is the per-request view of one browser's session.
// The provider client and store are opened on first use.
type requestAuth struct {
	server  *Server
	c       *gin.Context
	session *sessions.Session

	client provider.Client
	store  *authstate.Store
}

func getRequestAuth(c *gin.Context) *requestAuth {
	v, ok := c.Get(requestAuthKey)
	if !ok {
		return nil
	}
	ra, _ := v.(*requestAuth)
	return ra
}

// Store opens the provider client from the cookie and wraps it in an auth store
func (ra *requestAuth) Store() *authstate.Store {
	if ra.store != nil {
		return ra.store
	}

	ctx := ra.c.Request.Context()
	ra.client = ra.server.backend.Open(ctx, ra.credentials())
	ra.store = authstate.New(
		ctx,
		ra.client,
		ra.server.mirror.ForDevice(ra.deviceID()),
		flashNotifier{session: ra.session},
		ra.server.logger,
	)
	return ra.store
}

// close tears down anything Store opened
func (ra *requestAuth) close() {
	if ra.store != nil {
		ra.store.Close()
	}
	if ra.client != nil {
		ra.client.Close()
	}
}

func (ra *requestAuth) credentials() provider.Credentials {
	return provider.Credentials{
		IDToken: stringValue(ra.session, keyIDToken),
		UID:     stringValue(ra.session, keyUID),
	}
}

// deviceID identifies this browser in the mirror table
func (ra *requestAuth) deviceID() string {
	if id := stringValue(ra.session, keyDeviceID); id != "" {
		return id
	}
	id := ulid.Make().String()
	ra.session.Values[keyDeviceID] = id
	return id
}

// save copies the provider's current credentials into the cookie and
// writes it. It must run before the response body.
func (ra *requestAuth) save() {
	if ra.client != nil {
		creds := ra.client.Credentials()
		if creds.IsZero() {
			delete(ra.session.Values, keyIDToken)
			delete(ra.session.Values, keyUID)
		} else {
			ra.session.Values[keyIDToken] = creds.IDToken
			ra.session.Values[keyUID] = creds.UID
		}
	}

	if err := ra.session.Save(ra.c.Request, ra.c.Writer); err != nil {
		ra.server.logger.Error().Err(err).Msg("Failed to save session cookie")
	}
}

// flashes pops pending messages for rendering
func (ra *requestAuth) flashes() views.Flash {
	return views.Flash{
		Success: flashStrings(ra.session.Flashes(flashSuccess)),
		Error:   flashStrings(ra.session.Flashes(flashError)),
	}
}

// flashNotifier shows auth notifications on the next rendered page
type flashNotifier struct {
	session *sessions.Session
}

func (n flashNotifier) Success(msg string) { n.session.AddFlash(msg, flashSuccess) }
func (n flashNotifier) Error(msg string)   { n.session.AddFlash(msg, flashError) }

func stringValue(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}

func flashStrings(in []interface{}) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
