// Package access models who is asking for sensitive data and with what
// authority. A Context is built once per request from verified authentication
// output and is never mutated afterwards; a role change means a new token and
// therefore a new Context.
package access

import (
	"strings"
	"time"

	id "haven/pkg/domain"
)

// Context is an immutable snapshot of the requesting actor. All fields are
// unexported; construction goes through New so invariants hold from birth.
type Context struct {
	actorID       id.ActorID
	roles         map[Role]struct{}
	justification string
	clientScope   id.ClientID // optional case/client the request is scoped to
	assignedTo    map[id.ClientID]struct{}
	sessionID     id.SessionID
	origin        string // anonymized network origin
	userAgent     string
	builtAt       time.Time
}

// Params carries the verified inputs for building a Context.
type Params struct {
	ActorID       id.ActorID
	Roles         []Role
	Justification string
	ClientScope   id.ClientID
	// AssignedClients lists clients the actor is the assigned case worker for,
	// as resolved by the caseload system.
	AssignedClients []id.ClientID
	SessionID       id.SessionID
	Origin          string
	UserAgent       string
	BuiltAt         time.Time
}

// New builds an immutable Context. Roles not in the closed catalog are
// dropped, never carried as free-form strings.
func New(p Params) *Context {
	roles := make(map[Role]struct{}, len(p.Roles))
	for _, r := range p.Roles {
		if r.Known() {
			roles[r] = struct{}{}
		}
	}
	assigned := make(map[id.ClientID]struct{}, len(p.AssignedClients))
	for _, c := range p.AssignedClients {
		if !c.IsNil() {
			assigned[c] = struct{}{}
		}
	}
	builtAt := p.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now()
	}
	return &Context{
		actorID:       p.ActorID,
		roles:         roles,
		justification: strings.TrimSpace(p.Justification),
		clientScope:   p.ClientScope,
		assignedTo:    assigned,
		sessionID:     p.SessionID,
		origin:        p.Origin,
		userAgent:     p.UserAgent,
		builtAt:       builtAt,
	}
}

// Anonymous returns the maximally restrictive context: no actor, no roles.
// Missing authentication output degrades to this rather than erroring mid
// decision.
func Anonymous() *Context {
	return New(Params{})
}

func (c *Context) ActorID() id.ActorID      { return c.actorID }
func (c *Context) SessionID() id.SessionID  { return c.sessionID }
func (c *Context) ClientScope() id.ClientID { return c.clientScope }
func (c *Context) Origin() string           { return c.origin }
func (c *Context) UserAgent() string        { return c.userAgent }
func (c *Context) BuiltAt() time.Time       { return c.builtAt }
func (c *Context) Justification() string    { return c.justification }

// Roles returns a copy of the role set, sorted order not guaranteed.
func (c *Context) Roles() []Role {
	out := make([]Role, 0, len(c.roles))
	for r := range c.roles {
		out = append(out, r)
	}
	return out
}

// HasRole reports whether the actor carries the named role.
func (c *Context) HasRole(r Role) bool {
	_, ok := c.roles[r]
	return ok
}

// HasAnyRole reports whether the actor carries at least one of the roles.
func (c *Context) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}

// IsAnonymous reports whether no verified actor or roles are present.
func (c *Context) IsAnonymous() bool {
	return c.actorID.IsNil() && len(c.roles) == 0
}

// MaxAccessLevel maps the highest-privilege role present onto the ordered
// access-level scale. Anonymous contexts sit at PUBLIC.
func (c *Context) MaxAccessLevel() AccessLevel {
	max := LevelPublic
	for r := range c.roles {
		if lvl := r.Level(); lvl > max {
			max = lvl
		}
	}
	return max
}

// IsAssignedCaseWorker reports whether the actor is the assigned case worker
// for the client.
func (c *Context) IsAssignedCaseWorker(clientID id.ClientID) bool {
	if clientID.IsNil() {
		return false
	}
	_, ok := c.assignedTo[clientID]
	return ok
}

// HasLegalAuthorization reports whether the actor carries a legal-group role.
func (c *Context) HasLegalAuthorization() bool {
	for r := range c.roles {
		if r.IsLegal() {
			return true
		}
	}
	return false
}

// IsCaseStaff reports whether the actor carries any case-management role.
func (c *Context) IsCaseStaff() bool {
	for r := range c.roles {
		if r.IsCaseManagement() {
			return true
		}
	}
	return false
}

// HasClinicalRole reports whether the actor carries any clinical-group role.
func (c *Context) HasClinicalRole() bool {
	for r := range c.roles {
		if r.IsClinical() {
			return true
		}
	}
	return false
}

// HasMedicalRole reports whether the actor carries any medical-group role.
func (c *Context) HasMedicalRole() bool {
	for r := range c.roles {
		if r.IsMedical() {
			return true
		}
	}
	return false
}

// HasPrivilegedAccess reports whether any role may read privileged counseling
// content.
func (c *Context) HasPrivilegedAccess() bool {
	for r := range c.roles {
		if r.HasPrivilegedAccess() {
			return true
		}
	}
	return false
}

// HasExternalPartnerRole reports whether any role present is scoped to the
// partner-visible data system. Boundary checks key off this: one partner
// role taints the whole context no matter what else the actor holds.
func (c *Context) HasExternalPartnerRole() bool {
	for r := range c.roles {
		if r.IsExternalPartner() {
			return true
		}
	}
	return false
}

// IsExternalPartner reports whether every role present is scoped to the
// partner-visible data system. An actor holding any internal role is not
// treated as external.
func (c *Context) IsExternalPartner() bool {
	if len(c.roles) == 0 {
		return false
	}
	for r := range c.roles {
		if !r.IsExternalPartner() {
			return false
		}
	}
	return true
}

// HasJustification reports whether a non-blank business justification was
// declared at construction.
func (c *Context) HasJustification() bool {
	return c.justification != ""
}

// RequiresJustification reports whether access to the given sensitivity
// demands a declared justification from this actor. High-risk categories and
// direct identifiers read by non-case-staff must be justified; if required and
// absent the caller denies regardless of role.
func (c *Context) RequiresJustification(highRisk, directIdentifier bool) bool {
	if highRisk {
		return true
	}
	return directIdentifier && !c.IsCaseStaff()
}
