package domain

type State string

const (
	StateIdle    State = "idle"
	StateFrozen  State = "frozen"
	StatePending State = "pending_confirmation"
)

type Permission string

const (
	PermissionLocation     Permission = "location"
	PermissionCamera       Permission = "camera"
	PermissionMediaLibrary Permission = "media_library"
)

// Next tells the caller where the flow goes after a confirm or finish.
type Next string

const (
	NextContinue     Next = "continue"
	NextFolders      Next = "folders"
	NextReturnToForm Next = "return_to_form"
)

type Storage string

const (
	StorageRemote Storage = "remote"
	StorageLocal  Storage = "local"
)

// FlowContext carries what is decided once when a capture flow starts.
type FlowContext struct {
	UserID        int64
	Resolved      bool
	ExpectHandoff bool
}

// Status is a snapshot of the coordinator.
type Status struct {
	State             State
	Started           bool
	Live              *Position
	Frozen            *Position
	Location          string
	AccuracyThreshold int
	Multi             bool
	SessionID         string
	SessionCount      int
	Pending           string
	LocationDenied    bool
	CameraDenied      bool
	LibraryGranted    bool
	Identified        bool
}

// Effective is the coordinate a confirm would persist: the frozen snapshot when frozen,
// else the live fix, else zero.
func (s Status) Effective() Position {
	if s.Frozen != nil {
		return s.Frozen.Fixed()
	}
	if s.Live != nil {
		return s.Live.Fixed()
	}
	return Position{}
}

type ConfirmResult struct {
	PhotoID      int64
	URI          string
	QRPayload    string
	Storage      Storage
	SessionID    string
	SessionCount int
	Position     Position
	Next         Next
}

type FinishResult struct {
	SessionID string
	Count     int
	ImageIDs  []int64
	Next      Next
}
