package draft

// DefaultScript is the standard nine-step draft used when a room is not
// configured with a custom script.
var DefaultScript = Script{
	{Ordinal: 1, Side: SideLeft, Action: ActionBan, Count: 2, Label: "Left bans 2"},
	{Ordinal: 2, Side: SideRight, Action: ActionBan, Count: 2, Label: "Right bans 2"},
	{Ordinal: 3, Side: SideLeft, Action: ActionPick, Count: 1, Label: "Left picks 1"},
	{Ordinal: 4, Side: SideRight, Action: ActionPick, Count: 2, Label: "Right picks 2"},
	{Ordinal: 5, Side: SideLeft, Action: ActionBan, Count: 2, Label: "Left bans 2"},
	{Ordinal: 6, Side: SideRight, Action: ActionBan, Count: 2, Label: "Right bans 2"},
	{Ordinal: 7, Side: SideRight, Action: ActionPick, Count: 1, Label: "Right picks 1"},
	{Ordinal: 8, Side: SideLeft, Action: ActionPick, Count: 2, Label: "Left picks 2"},
	{Ordinal: 9, Side: SideRight, Action: ActionPick, Count: 1, Label: "Right picks 1"},
}

// DefaultRoster lists every selectable hero ID. The core only needs it as
// the auto-action pool; names and art live client-side.
var DefaultRoster = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
