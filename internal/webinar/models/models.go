package models

// Credential type ids and fixed credential texts of the webinar series.
const (
	RegistrationCredentialTypeID = "WebinarRegistrationSchema"
	AttendanceCredentialTypeID   = "WebinarCredentialSchema"

	SeriesCredType        = "AFFINIDI DEVELOPER WEBINAR SERIES"
	RegistrationCredTitle = "Certificate Of Registration"
	AttendanceCredTitle   = "Certificate of Attendance"
	DefaultPassType       = "Premium Pass"
	DefaultPassAmount     = "₹18,999"
)

// Messages shown to visitors when a form is incomplete.
const (
	MessageLogin        = "please login"
	MessageFetchProfile = "please fetch profile details from vault"
	MessageFetchWebinar = "please fetch webinar details from vault"
)

// Webinar is one session of the developer webinar series.
type Webinar struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// RegistrationForm is the registration page form. Prefill fills it from
// user-profile claims; the visitor may edit it before registering.
type RegistrationForm struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	DOB         string `json:"dob,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Registration asks for a registration credential for one webinar.
type Registration struct {
	HolderDID  string
	WebinarID  int
	Form       RegistrationForm
	PassType   string
	PassAmount string
}

// Attendance asks for the attendance credential. The webinar details come
// from the visitor's registration credential.
type Attendance struct {
	HolderDID    string
	Email        string
	Name         string
	WebinarTitle string
	WebinarDate  string
	Description  string
}
