package report

// SubmitPayload is the body of POST /api/v1/sos.
type SubmitPayload struct {
	DisasterType string      `json:"disasterType"`
	Location     Coordinates `json:"location"`
	Details      string      `json:"details,omitempty"`
	MobileNumber string      `json:"mobileNumber,omitempty"`
}

// LegacySubmitPayload is the body of the deprecated POST /submit_sos.
type LegacySubmitPayload struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

// StatusUpdate is the body of POST /update_status/{id}.
type StatusUpdate struct {
	Status Status `json:"status"`
}

// AnnouncementPayload is the body of announcement create and update calls.
type AnnouncementPayload struct {
	Content string `json:"content"`
}

// Credentials is the body of POST /login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the body returned by /login and /check_login.
type LoginResult struct {
	LoggedIn bool   `json:"logged_in"`
	Message  string `json:"message,omitempty"`
}

// Ack is the generic {message} acknowledgement most write endpoints return.
type Ack struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}
