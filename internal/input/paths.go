package input

// Path names one boolean action signal produced by the input mapping layer.
type Path string

const (
	LeftHandGrab  Path = "/actions/leftHand/grab"
	LeftHandDrop  Path = "/actions/leftHand/drop"
	RightHandGrab Path = "/actions/rightHand/grab"
	RightHandDrop Path = "/actions/rightHand/drop"
	CursorGrab    Path = "/actions/cursor/grab"
	CursorDrop    Path = "/actions/cursor/drop"

	RightHandTeleportAim Path = "/actions/rightHand/teleportAim"
)

// Or returns p, or fallback when p is empty.
func (p Path) Or(fallback Path) Path {
	if p == "" {
		return fallback
	}
	return p
}
