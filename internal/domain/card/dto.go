package card

// IssueCardRequest is the payload for issuing a new card
type IssueCardRequest struct {
	MemberID string `json:"member_id" validate:"required,uuid"`
	Number   string `json:"number" validate:"required,card_number"`
}

// PointsRequest is the payload for manual add/deduct operations
type PointsRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=256"`
}
