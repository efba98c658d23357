package model

// GlobalStats is a point-in-time snapshot across all origins.
type GlobalStats struct {
	TotalEvents  int64 `json:"total_events"`
	TotalOrigins int64 `json:"total_origins"`
	TotalActors  int64 `json:"total_actors"`
}

// OriginStats is a point-in-time snapshot for a single origin.
type OriginStats struct {
	OriginID   int64        `json:"origin_id"`
	EventCount int64        `json:"event_count"`
	ActorCount int64        `json:"actor_count"`
	TopActors  []ActorCount `json:"top_actors"`
}

// ActorCount pairs an actor with its event count in an origin.
type ActorCount struct {
	ActorID    int64  `json:"actor_id"`
	Display    string `json:"display,omitempty"`
	EventCount int64  `json:"event_count"`
}

// DefaultTopActors is the number of actors reported in OriginStats.
const DefaultTopActors = 5
