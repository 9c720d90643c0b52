package model

const RoleAdmin = "ADMIN"

// Principal is the caller identified by an access token.
type Principal struct {
	FarmerID string
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsAnonymous() bool {
	return p.FarmerID == ""
}

// CanRead reports whether the principal may see a record owned by farmerID.
func (p Principal) CanRead(owner *string) bool {
	if p.IsAdmin() {
		return true
	}
	return owner != nil && *owner == p.FarmerID && !p.IsAnonymous()
}
