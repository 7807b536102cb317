package domain

// Direction identifies the kind of movement a participant requested. Leaves
// receive it in AllowLeaving and Leave so they can veto or react per kind.
type Direction int

const (
	// Forward advances to the next visible sibling or descendant.
	Forward Direction = iota
	// Backward returns to the previous visible sibling or descendant.
	Backward
	// Jump addresses a target directly, via a jumplist entry or position path.
	Jump
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Jump:
		return "jump"
	default:
		return "unknown"
	}
}
