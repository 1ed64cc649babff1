package dto

type StartInput struct {
	ExpectHandoff bool
}

type PositionOutput struct {
	Lat      float64  `json:"lat" yaml:"lat"`
	Lon      float64  `json:"lon" yaml:"lon"`
	Accuracy *float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
}

type StatusOutput struct {
	State             string          `json:"state" yaml:"state"`
	Live              *PositionOutput `json:"live,omitempty" yaml:"live,omitempty"`
	Frozen            *PositionOutput `json:"frozen,omitempty" yaml:"frozen,omitempty"`
	Location          string          `json:"location" yaml:"location"`
	AccuracyThreshold int             `json:"accuracyThreshold" yaml:"accuracyThreshold"`
	Multi             bool            `json:"multi" yaml:"multi"`
	SessionID         string          `json:"sessionId,omitempty" yaml:"sessionId,omitempty"`
	SessionCount      int             `json:"sessionCount" yaml:"sessionCount"`
	LocationDenied    bool            `json:"locationDenied" yaml:"locationDenied"`
	CameraDenied      bool            `json:"cameraDenied" yaml:"cameraDenied"`
	Identified        bool            `json:"identified" yaml:"identified"`
	Notice            string          `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// UserError carries the text shown to the enumerator for a failed step.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Err.Error() }

func (e *UserError) Unwrap() error { return e.Err }

type ConfirmOutput struct {
	PhotoID      int64   `json:"photoId" yaml:"photoId"`
	URI          string  `json:"uri" yaml:"uri"`
	QRPayload    string  `json:"qrPayload" yaml:"qrPayload"`
	Storage      string  `json:"storage" yaml:"storage"`
	SessionID    string  `json:"sessionId" yaml:"sessionId"`
	SessionCount int     `json:"sessionCount" yaml:"sessionCount"`
	Lat          float64 `json:"lat" yaml:"lat"`
	Lon          float64 `json:"lon" yaml:"lon"`
	Next         string  `json:"next" yaml:"next"`
}

type FinishOutput struct {
	SessionID string  `json:"sessionId" yaml:"sessionId"`
	Count     int     `json:"count" yaml:"count"`
	ImageIDs  []int64 `json:"imageIds" yaml:"imageIds"`
	Next      string  `json:"next" yaml:"next"`
}

type RemoteRecordOutput struct {
	ID         int64   `json:"id" yaml:"id"`
	SessionID  string  `json:"sessionId" yaml:"sessionId"`
	Latitude   float64 `json:"latitude" yaml:"latitude"`
	Longitude  float64 `json:"longitude" yaml:"longitude"`
	ImageURL   string  `json:"imageUrl" yaml:"imageUrl"`
	Storage    string  `json:"storage" yaml:"storage"`
	Sequence   int     `json:"sequence" yaml:"sequence"`
	IsPrimary  bool    `json:"isPrimary" yaml:"isPrimary"`
	CapturedAt string  `json:"capturedAt" yaml:"capturedAt"`
}

// RunInput drives a scripted capture from the command line.
type RunInput struct {
	Shots    int
	Multi    bool
	Handoff  bool
	Freeze   bool
	Accuracy int
}

type RunOutput struct {
	Status   StatusOutput    `json:"status" yaml:"status"`
	Captures []ConfirmOutput `json:"captures" yaml:"captures"`
	Finish   *FinishOutput   `json:"finish,omitempty" yaml:"finish,omitempty"`
}
