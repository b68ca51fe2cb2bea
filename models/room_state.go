package models

import "fmt"

// RoomState is the housekeeping/maintenance condition of a room unit.
// It is independent of whether a reservation claims the unit for some dates.
type RoomState string

const (
	RoomAvailable   RoomState = "available"
	RoomOccupied    RoomState = "occupied"
	RoomDirty       RoomState = "dirty"
	RoomCleaning    RoomState = "cleaning_in_progress"
	RoomMaintenance RoomState = "maintenance"
)

// RoomEvent drives a room unit from one state to another.
type RoomEvent string

const (
	RoomEventStartCleaning    RoomEvent = "start_cleaning"
	RoomEventFinishCleaning   RoomEvent = "finish_cleaning"
	RoomEventSetMaintenance   RoomEvent = "set_maintenance"
	RoomEventClearMaintenance RoomEvent = "clear_maintenance"
	RoomEventMarkDirty        RoomEvent = "mark_dirty"

	// Raised only by reservation check-in and check-out.
	RoomEventOccupy RoomEvent = "occupy"
	RoomEventVacate RoomEvent = "vacate"
)

// roomTransitions is the only place unit state changes are defined.
var roomTransitions = map[RoomState]map[RoomEvent]RoomState{
	RoomAvailable: {
		RoomEventSetMaintenance: RoomMaintenance,
		RoomEventMarkDirty:      RoomDirty,
		RoomEventOccupy:         RoomOccupied,
	},
	RoomOccupied: {
		RoomEventVacate: RoomDirty,
	},
	RoomDirty: {
		RoomEventStartCleaning: RoomCleaning,
	},
	RoomCleaning: {
		RoomEventFinishCleaning: RoomAvailable,
	},
	RoomMaintenance: {
		RoomEventClearMaintenance: RoomAvailable,
	},
}

var systemRoomEvents = map[RoomEvent]bool{
	RoomEventOccupy: true,
	RoomEventVacate: true,
}

// IsValid reports whether s is a known room state.
func (s RoomState) IsValid() bool {
	_, ok := roomTransitions[s]
	return ok
}

// Next returns the state reached by applying e, and false when e is not legal from s.
func (s RoomState) Next(e RoomEvent) (RoomState, bool) {
	next, ok := roomTransitions[s][e]
	return next, ok
}

func (s RoomState) String() string {
	return string(s)
}

// IsValid reports whether e is a known room event.
func (e RoomEvent) IsValid() bool {
	if systemRoomEvents[e] {
		return true
	}
	for _, events := range roomTransitions {
		if _, ok := events[e]; ok {
			return true
		}
	}
	return false
}

// IsManual reports whether housekeeping staff may raise e directly.
func (e RoomEvent) IsManual() bool {
	return e.IsValid() && !systemRoomEvents[e]
}

// ParseRoomEvent converts a string to a RoomEvent, returning an error if unknown.
func ParseRoomEvent(s string) (RoomEvent, error) {
	e := RoomEvent(s)
	if !e.IsValid() {
		return "", fmt.Errorf("unknown room event: %q", s)
	}
	return e, nil
}
