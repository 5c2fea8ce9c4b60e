package models

// ProfileInput is the writable part of a traveler profile.
type ProfileInput struct {
	Age          *int     `json:"age"`
	Sex          string   `json:"sex"`
	Conditions   []string `json:"conditions,omitempty"`
	Pregnant     bool     `json:"pregnant"`
	Allergies    []string `json:"allergies,omitempty"`
	Vaccinations []string `json:"vaccinations,omitempty"`
	Medications  []string `json:"medications,omitempty"`
}

// Profile is a stored traveler profile.
type Profile struct {
	ProfileID    string    `json:"profileId"`
	Age          int       `json:"age"`
	Sex          string    `json:"sex"`
	Conditions   []string  `json:"conditions"`
	Pregnant     bool      `json:"pregnant"`
	Allergies    []string  `json:"allergies"`
	Vaccinations []string  `json:"vaccinations"`
	Medications  []string  `json:"medications"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}
