package model

// ActorAggregate holds running counters for one actor within one origin.
type ActorAggregate struct {
	OriginID      int64  `json:"origin_id"`
	ActorID       int64  `json:"actor_id"`
	ActorUsername string `json:"actor_username,omitempty"`
	ActorDisplay  string `json:"actor_display,omitempty"`
	FirstSeen     int64  `json:"first_seen"`
	LastSeen      int64  `json:"last_seen"`
	EventCount    int64  `json:"event_count"`
}

// Name returns the best human-readable label for the actor.
func (a *ActorAggregate) Name() string {
	switch {
	case a.ActorDisplay != "":
		return a.ActorDisplay
	case a.ActorUsername != "":
		return "@" + a.ActorUsername
	default:
		return ""
	}
}
