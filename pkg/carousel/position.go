package carousel

import "sort"

// SortItems orders items by position. Equal positions keep insertion order,
// which is the ascending item id.
func SortItems(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})
}

// Renumber sorts items and assigns rank*PositionStep, rank starting at 1.
// It returns the items whose position changed; applying it to an already
// renumbered slice returns nothing.
func Renumber(items []*Item) []*Item {
	SortItems(items)

	var changed []*Item
	for i, item := range items {
		position := (i + 1) * PositionStep
		if item.Position != position {
			item.Position = position
			changed = append(changed, item)
		}
	}
	return changed
}

// Nudge returns the position of an item after one move in direction d.
// Moving up never produces a negative position: it clamps to PositionStep.
func Nudge(position int, d Direction) int {
	if d == DirectionDown {
		position += MoveStep
		if position > MaxPosition {
			return MaxPosition
		}
		return position
	}

	position -= MoveStep
	if position < 0 {
		return PositionStep
	}
	return position
}
