package model

// Role names carried in the identity assertion's roles claim.
const (
    RoleStudent     = "student"
    RoleHostelOwner = "hostelOwner"
    RoleMessOwner   = "messOwner"
    RoleGymOwner    = "gymOwner"
)

// OwnerRoles lists every role that may manage listings and bookings.
var OwnerRoles = []string{RoleHostelOwner, RoleMessOwner, RoleGymOwner}

// Identity is the authenticated caller resolved from a request credential
// by the external identity provider.
type Identity struct {
    ID    string
    Roles []string
}

// HasRole reports whether the identity carries any of the given roles.
func (i Identity) HasRole(roles ...string) bool {
    for _, have := range i.Roles {
        for _, want := range roles {
            if have == want {
                return true
            }
        }
    }
    return false
}

// UserSummary mirrors the subset of the `users` table shown next to a
// booking. The table is owned by the identity provider; this service only
// reads it.
type UserSummary struct {
    ID       string `json:"id"`
    Username string `json:"username"`
    Email    string `json:"email"`
}
