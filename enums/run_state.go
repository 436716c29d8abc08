package enums

type RunState string

const (
	RunStateCreated     RunState = "created"
	RunStateParsing     RunState = "parsing"
	RunStateDownloading RunState = "downloading"
	RunStateMerging     RunState = "merging"
	RunStateCleaning    RunState = "cleaning"
	RunStateDone        RunState = "done"
	RunStateFailed      RunState = "failed"
)

// terminal states accept no further transitions
func (s RunState) IsTerminal() bool {
	return s == RunStateDone || s == RunStateFailed
}
