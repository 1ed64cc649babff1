package dto

type PublishInput struct {
	PrimaryID int64
	Latitude  float64
	Longitude float64
	Location  string
	ImageIDs  []int64
	Timestamp string
}

type PayloadOutput struct {
	PrimaryGeoImageID string `json:"primaryGeoImageId" yaml:"primaryGeoImageId"`
	Latitude          string `json:"latitude" yaml:"latitude"`
	Longitude         string `json:"longitude" yaml:"longitude"`
	Location          string `json:"location" yaml:"location"`
	TotalImages       string `json:"totalImages" yaml:"totalImages"`
	ImageIDs          string `json:"imageIds" yaml:"imageIds"`
	Timestamp         string `json:"timestamp" yaml:"timestamp"`
}

type PublishOutput struct {
	Payload  PayloadOutput `json:"payload" yaml:"payload"`
	Replaced bool          `json:"replaced" yaml:"replaced"`
}
