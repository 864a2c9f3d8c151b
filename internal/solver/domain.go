package solver

import (
	"math/rand"

	"github.com/schedule-hub/timetable-api/internal/dto"
)

// Lab domains prefer blocks of three consecutive slots; two-slot blocks are
// added only when options are thin.
const labBlockSize = 3

// domain is the ordered candidate placement list for one variable. Values are
// pruned during forward checking and restored on backtrack.
type domain struct {
	values []Placement
}

func (d *domain) isEmpty() bool {
	return len(d.values) == 0
}

func (d *domain) add(p Placement) {
	d.values = append(d.values, p)
}

// buildDomains computes candidate placements per variable. The seeded rng
// shuffles each domain once so tie-broken iteration differs per seed while
// staying reproducible.
func buildDomains(
	variables []*Variable,
	slotsByDay map[string][]Slot,
	dayOrder []string,
	payload dto.GenerateTimetableRequest,
	rng *rand.Rand,
) []*domain {
	domains := make([]*domain, len(variables))
	for _, variable := range variables {
		d := &domain{}
		if variable.SessionType == SessionLab {
			addLabValues(d, slotsByDay, dayOrder, payload, variable)
		} else {
			addLectureValues(d, slotsByDay, dayOrder, payload)
		}
		rng.Shuffle(len(d.values), func(i, j int) {
			d.values[i], d.values[j] = d.values[j], d.values[i]
		})
		domains[variable.ID] = d
	}
	return domains
}

// addLectureValues emits every (room, day, single slot) triple over rooms of
// kind Class, falling back to all selected rooms when none are classrooms.
func addLectureValues(d *domain, slotsByDay map[string][]Slot, dayOrder []string, payload dto.GenerateTimetableRequest) {
	rooms := roomsOfKind(payload.Rooms, payload.RoomTypes, RoomKindClass)
	if len(rooms) == 0 {
		rooms = payload.Rooms
	}
	for _, day := range dayOrder {
		for _, slot := range slotsByDay[day] {
			for _, room := range rooms {
				d.add(Placement{Room: room, Day: day, Slots: []Slot{slot}})
			}
		}
	}
}

// addLabValues emits consecutive 3-slot blocks per day and lab room. When
// total options stay below twice the lab room count, 2-slot fallback blocks
// are added as well. An optional per-class restriction narrows the room set;
// an empty result falls back to all selected rooms.
func addLabValues(d *domain, slotsByDay map[string][]Slot, dayOrder []string, payload dto.GenerateTimetableRequest, variable *Variable) {
	var labRooms []string
	if restricted, ok := payload.ClassLabRooms[variable.Class]; ok {
		labRooms = roomsOfKind(restricted, payload.RoomTypes, RoomKindLab)
	} else {
		labRooms = roomsOfKind(payload.Rooms, payload.RoomTypes, RoomKindLab)
	}
	if len(labRooms) == 0 {
		labRooms = payload.Rooms
	}
	if len(labRooms) == 0 {
		return
	}

	options := 0
	for _, day := range dayOrder {
		daySlots := slotsByDay[day]
		for _, block := range consecutiveBlocks(daySlots, labBlockSize) {
			for _, room := range labRooms {
				d.add(Placement{Room: room, Day: day, Slots: block})
				options++
			}
		}
		if options < len(labRooms)*2 {
			for _, block := range consecutiveBlocks(daySlots, labBlockSize-1) {
				for _, room := range labRooms {
					d.add(Placement{Room: room, Day: day, Slots: block})
					options++
				}
			}
		}
	}
}

// consecutiveBlocks finds runs of count slots where each slot ends exactly
// where the next begins.
func consecutiveBlocks(slots []Slot, count int) [][]Slot {
	var blocks [][]Slot
	for i := 0; i+count <= len(slots); i++ {
		consecutive := true
		for j := 1; j < count; j++ {
			if slots[i+j-1].End != slots[i+j].Start {
				consecutive = false
				break
			}
		}
		if consecutive {
			block := make([]Slot, count)
			copy(block, slots[i:i+count])
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func roomsOfKind(rooms []string, roomTypes map[string]string, kind string) []string {
	var out []string
	for _, room := range rooms {
		if roomKind(roomTypes, room) == kind {
			out = append(out, room)
		}
	}
	return out
}
