package terminal

type commandGroup uint8

const (
	otherCmds commandGroup = iota
	searchCmds
	candidateCmds
)

type commandGroupDescription struct {
	description string
	group       commandGroup
}

var commandGroupDescriptions = []commandGroupDescription{
	{"Narrowing the candidate addresses", searchCmds},
	{"Inspecting candidates", candidateCmds},
	{"Other commands", otherCmds},
}
