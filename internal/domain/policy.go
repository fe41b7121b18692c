package domain

// CanMutate decides whether actor may update, delete or change the status of a
// resource owned by ownerID. Admins may mutate anything, advisors only what they
// created. Unknown roles are always denied.
func CanMutate(role Role, actorID, ownerID uint) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleAdvisor:
		return actorID == ownerID
	default:
		return false
	}
}
