package domain

type Participant struct {
	ConnID      string `json:"-"`
	TripID      string `json:"-"`
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName"`
}
