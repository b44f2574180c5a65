package member

// CreateMemberRequest is the payload for registering a member
type CreateMemberRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=128"`
	Phone    string `json:"phone" validate:"required,e164"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// UpdateMemberRequest is the payload for editing a member; nil fields are
// left untouched.
type UpdateMemberRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=128"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}
