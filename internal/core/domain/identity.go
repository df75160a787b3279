package domain

type Role string

const (
	RoleShopkeeper  Role = "shopkeeper"
	RoleDistributor Role = "distributor"
)

// Identity is the authenticated caller resolved from session state.
type Identity struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func (i Identity) Valid() bool {
	return i.UserID > 0 && (i.Role == RoleShopkeeper || i.Role == RoleDistributor)
}

func (i Identity) IsShopkeeper() bool {
	return i.Valid() && i.Role == RoleShopkeeper
}

func (i Identity) IsDistributor() bool {
	return i.Valid() && i.Role == RoleDistributor
}
