package job

import "partnerdispatch/internal/core/domain/model/kernel"

// Role distinguishes field partners from the dispatch back office.
type Role int

const (
	RolePartner Role = iota + 1
	RoleDispatcher
)

func (r Role) String() string {
	switch r {
	case RolePartner:
		return "partner"
	case RoleDispatcher:
		return "dispatcher"
	default:
		return "unknown"
	}
}

// Actor is the caller of a status change.
type Actor struct {
	role      Role
	partnerID kernel.UUID
}

func PartnerActor(partnerID kernel.UUID) Actor {
	return Actor{role: RolePartner, partnerID: partnerID}
}

func DispatcherActor() Actor {
	return Actor{role: RoleDispatcher}
}

func (a Actor) Role() Role {
	return a.role
}

// PartnerID is the zero UUID for dispatchers.
func (a Actor) PartnerID() kernel.UUID {
	return a.partnerID
}

func (a Actor) IsDispatcher() bool {
	return a.role == RoleDispatcher
}

func (a Actor) String() string {
	if a.role == RolePartner {
		return "partner:" + a.partnerID.String()
	}
	return a.role.String()
}
