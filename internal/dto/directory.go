package dto

type CreateBuildingRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type CreateIntercomRequest struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
	Location     string `json:"location,omitempty"`
}
