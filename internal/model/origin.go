package model

// OriginKind is the chat type reported by the platform for an origin.
type OriginKind string

const (
	OriginPrivate    OriginKind = "private"
	OriginGroup      OriginKind = "group"
	OriginSupergroup OriginKind = "supergroup"
	OriginChannel    OriginKind = "channel"
)

// Origin categories used by ingestion policy.
const (
	CategoryDirect    = "direct"
	CategoryGroup     = "group"
	CategoryBroadcast = "broadcast"
)

// String returns the string representation of the origin kind.
func (k OriginKind) String() string {
	return string(k)
}

// IsValid checks whether the origin kind is a known value.
func (k OriginKind) IsValid() bool {
	switch k {
	case OriginPrivate, OriginGroup, OriginSupergroup, OriginChannel:
		return true
	}
	return false
}

// Category folds the platform chat type into direct, group or broadcast.
// Unknown kinds are reported as group.
func (k OriginKind) Category() string {
	switch k {
	case OriginPrivate:
		return CategoryDirect
	case OriginChannel:
		return CategoryBroadcast
	default:
		return CategoryGroup
	}
}
