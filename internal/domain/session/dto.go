package session

// OpenSessionRequest is the payload for starting a session
type OpenSessionRequest struct {
	CardID         string `json:"card_id" validate:"required,uuid"`
	PlannedMinutes int    `json:"planned_minutes" validate:"required,gt=0"`
	ComputerInfo   string `json:"computer_info" validate:"max=128"`
}
