package conversation

// Flow identifies which guided conversation a user is in.
type Flow int

const (
	FlowNone Flow = iota
	FlowCreateTicket
	FlowCheckStatus
)

func (f Flow) String() string {
	switch f {
	case FlowCreateTicket:
		return "create_ticket"
	case FlowCheckStatus:
		return "check_status"
	default:
		return "none"
	}
}

// Step is the current position within a flow.
type Step int

const (
	StepNone Step = iota
	StepAwaitingName
	StepAwaitingTitle
	StepAwaitingDescription
	StepAwaitingAttachment
	StepAwaitingTicketNumber
)

func (s Step) String() string {
	switch s {
	case StepAwaitingName:
		return "awaiting_name"
	case StepAwaitingTitle:
		return "awaiting_title"
	case StepAwaitingDescription:
		return "awaiting_description"
	case StepAwaitingAttachment:
		return "awaiting_attachment"
	case StepAwaitingTicketNumber:
		return "awaiting_ticket_number"
	default:
		return "none"
	}
}

// Data holds the fields accumulated across the turns of a ticket-creation
// conversation.
type Data struct {
	UserID        string
	RequesterName string
	Title         string
	Description   string
}

// State is one user's position in a conversation. A state with FlowNone is
// never stored; absence from the store means the user is idle.
type State struct {
	Flow Flow
	Step Step
	Data Data
}
