package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/internal/errors"
)

type Capability string

const (
	CapabilityPostJobs  Capability = "post_jobs"
	CapabilityApplyJobs Capability = "apply_jobs"
)

var roleCapabilities = map[model.Role][]Capability{
	model.RoleEmployer:  {CapabilityPostJobs},
	model.RoleJobseeker: {CapabilityApplyJobs},
}

// Identity is the authenticated caller as seen by route guards.
type Identity struct {
	AccountID uint
	Role      model.Role
}

// HasCapability reports whether identity may use capability. A nil identity has none.
func HasCapability(identity *Identity, capability Capability) bool {
	if identity == nil {
		return false
	}
	for _, c := range roleCapabilities[identity.Role] {
		if c == capability {
			return true
		}
	}
	return false
}

// CapabilitiesOf lists what identity is allowed to do.
func CapabilitiesOf(identity *Identity) []Capability {
	if identity == nil {
		return []Capability{}
	}
	return append([]Capability{}, roleCapabilities[identity.Role]...)
}

// GetIdentity returns the identity set by the auth middleware, or nil for guests.
func GetIdentity(c *gin.Context) *Identity {
	id, ok := GetAccountID(c)
	if !ok {
		return nil
	}
	role, _ := GetAccountRole(c)
	return &Identity{AccountID: id, Role: role}
}

// RequireCapability must run after Authenticate.
func RequireCapability(capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)
		identity := GetIdentity(c)

		if identity == nil {
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if HasCapability(identity, capability) {
			c.Next()
			return
		}

		log.Warn("Insufficient permissions", map[string]interface{}{
			"account_id": identity.AccountID,
			"role":       identity.Role,
			"capability": capability,
			"path":       c.Request.URL.Path,
		})

		code, message := errors.AuthzForbidden, "Access denied"
		switch capability {
		case CapabilityPostJobs:
			code, message = errors.AuthzEmployerOnly, "Only employers can do this"
		case CapabilityApplyJobs:
			code, message = errors.AuthzJobseekerOnly, "Only jobseekers can do this"
		}
		errors.RespondWithError(c, http.StatusForbidden, code, message)
		c.Abort()
	}
}

// RedirectIfAuthenticated rejects callers that already hold a session.
// It must run after OptionalAuthenticate.
func RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity := GetIdentity(c); identity != nil {
			GetLoggerFromContext(c).Debug("Authenticated caller on anonymous route", map[string]interface{}{
				"account_id": identity.AccountID,
				"path":       c.Request.URL.Path,
			})
			errors.Conflict(c, errors.AuthAlreadyAuthenticated, "Already signed in")
			c.Abort()
			return
		}
		c.Next()
	}
}
