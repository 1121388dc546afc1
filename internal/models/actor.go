package models

// ActorRole discriminates the kind of principal acting on an emergency
type ActorRole string

const (
	// RoleOwner is the monitored individual themselves
	RoleOwner ActorRole = "user"
	// RoleCaregiver is a linked caregiver
	RoleCaregiver ActorRole = "caregiver"
)

// Actor is the acting principal as supplied by the external auth layer.
// It is a tagged variant: the role decides how the ID is interpreted, and
// authorization decisions switch on it rather than inspecting raw fields.
type Actor struct {
	Role ActorRole
	ID   uint
}

// OwnerActor builds an actor for the monitored individual
func OwnerActor(id uint) Actor {
	return Actor{Role: RoleOwner, ID: id}
}

// CaregiverActor builds an actor for a linked caregiver
func CaregiverActor(id uint) Actor {
	return Actor{Role: RoleCaregiver, ID: id}
}

// CanResolve reports whether this actor may resolve the given event.
// Owners may only resolve their own events; caregivers may only resolve
// events they were actually notified of.
func (a Actor) CanResolve(event *EmergencyEvent) bool {
	switch a.Role {
	case RoleOwner:
		return a.ID == event.OwnerID
	case RoleCaregiver:
		return event.WasNotified(a.ID)
	default:
		return false
	}
}
