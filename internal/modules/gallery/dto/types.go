package dto

type PhotoInput struct {
	ID        int64
	URI       string
	Lat       float64
	Lon       float64
	Acc       *float64
	CreatedAt string
	SessionID string
}

type PhotoOutput struct {
	ID        int64    `json:"id" yaml:"id"`
	URI       string   `json:"uri" yaml:"uri"`
	Lat       float64  `json:"lat" yaml:"lat"`
	Lon       float64  `json:"lon" yaml:"lon"`
	Acc       *float64 `json:"acc" yaml:"acc"`
	CreatedAt string   `json:"createdAt" yaml:"createdAt"`
	SessionID string   `json:"sessionId,omitempty" yaml:"sessionId,omitempty"`
	Remote    bool     `json:"remote" yaml:"remote"`
}

type ListFoldersInput struct {
	Query string
	Sort  string
}

type FolderOutput struct {
	ID        string  `json:"id" yaml:"id"`
	Cover     string  `json:"cover" yaml:"cover"`
	When      string  `json:"when" yaml:"when"`
	Count     int     `json:"count" yaml:"count"`
	MemberIDs []int64 `json:"memberIds" yaml:"memberIds"`
	Legacy    bool    `json:"legacy" yaml:"legacy"`
	DetailKey string  `json:"detailKey" yaml:"detailKey"`
}

type DetailOutput struct {
	Key    string        `json:"key" yaml:"key"`
	Tier   string        `json:"tier" yaml:"tier"`
	Photos []PhotoOutput `json:"photos" yaml:"photos"`
}

type DeleteFoldersInput struct {
	IDs []string `json:"ids"`
}

type DeleteFoldersOutput struct {
	Removed int `json:"removed" yaml:"removed"`
}

type StatsOutput struct {
	Folders       int `json:"folders" yaml:"folders"`
	LegacyFolders int `json:"legacyFolders" yaml:"legacyFolders"`
	Photos        int `json:"photos" yaml:"photos"`
	RemotePhotos  int `json:"remotePhotos" yaml:"remotePhotos"`
	LocalPhotos   int `json:"localPhotos" yaml:"localPhotos"`
}
