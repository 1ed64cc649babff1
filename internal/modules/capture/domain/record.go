package domain

// RemoteRecord is the metadata row written for every confirmed capture.
type RemoteRecord struct {
	ID         int64    `db:"id" json:"id"`
	UserID     int64    `db:"user_id" json:"userId"`
	SessionID  string   `db:"session_id" json:"sessionId"`
	Latitude   float64  `db:"latitude" json:"latitude"`
	Longitude  float64  `db:"longitude" json:"longitude"`
	Accuracy   *float64 `db:"accuracy" json:"accuracy"`
	Location   string   `db:"location" json:"location"`
	ImageURL   string   `db:"image_url" json:"imageUrl"`
	QRPayload  string   `db:"qr_payload" json:"qrPayload"`
	Storage    string   `db:"storage" json:"storage"`
	Sequence   int      `db:"sequence" json:"sequence"`
	IsPrimary  bool     `db:"is_primary" json:"isPrimary"`
	CapturedAt string   `db:"captured_at" json:"capturedAt"`
}

// Columns lists the writable columns in insert order.
func (r RemoteRecord) Columns() ([]string, []any) {
	return []string{
			"user_id", "session_id", "latitude", "longitude", "accuracy", "location",
			"image_url", "qr_payload", "storage", "sequence", "is_primary", "captured_at",
		}, []any{
			r.UserID, r.SessionID, r.Latitude, r.Longitude, r.Accuracy, r.Location,
			r.ImageURL, r.QRPayload, r.Storage, r.Sequence, r.IsPrimary, r.CapturedAt,
		}
}

// SessionPhoto is the slice of a logged photo the hand-off needs.
type SessionPhoto struct {
	ID  int64
	Lat float64
	Lon float64
}

// CapturedPhoto is what gets appended to the local photo log after a confirm.
type CapturedPhoto struct {
	ID        int64
	URI       string
	Position  Position
	CreatedAt string
	SessionID string
}

// HandoffSummary is what the capture flow hands back to the form that opened it.
type HandoffSummary struct {
	PrimaryID int64
	Lat       float64
	Lon       float64
	Location  string
	ImageIDs  []int64
	Timestamp string
}
