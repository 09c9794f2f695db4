package session

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	cookieName = "sf_session"
	contextKey = "session"
)

// Middleware loads the visitor's session before the handler runs and
// saves it afterwards, but only when a handler dirtied it. New visitors
// get a uuid cookie on the way in.
func Middleware(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			id = uuid.NewString()
			maxAge := int(store.ttl.Seconds())
			c.SetCookie(cookieName, id, maxAge, "/", "", false, true)
		}

		sess, err := store.Load(c.Request.Context(), id)
		if err != nil {
			log.Println("[SESSION] [ERROR] load failed:", err)
			sess = New(id)
		}

		c.Set(contextKey, sess)
		c.Next()

		if sess.Dirty() {
			if err := store.Save(c.Request.Context(), sess); err != nil {
				log.Println("[SESSION] [ERROR] save failed:", err)
			}
		}
	}
}

// FromContext returns the request session installed by Middleware.
func FromContext(c *gin.Context) *Session {
	value, exists := c.Get(contextKey)
	if !exists {
		return New("")
	}
	sess, ok := value.(*Session)
	if !ok {
		return New("")
	}
	return sess
}
