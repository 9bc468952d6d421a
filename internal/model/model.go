package model

// Role values issued by the auth endpoint.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
	RoleBill  = "BILL"
)

const (
	EmployeeActive   = "ACTIVE"
	EmployeeInactive = "INACTIVE"

	CategoryCasual  = "CL"
	CategoryHandler = "HL"
)

const (
	PeriodOpen   = "OPEN"
	PeriodClosed = "CLOSED"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Role         string `json:"role"`
	SessionID    string `json:"sessionId,omitempty"`
	Message      string `json:"message,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type SessionStatus struct {
	SessionID string `json:"sessionId"`
}

type Employee struct {
	ID            string `json:"id,omitempty"`
	MemberID      string `json:"memberId"`
	FullName      string `json:"fullName"`
	UANNumber     string `json:"uanNumber"`
	IPNumber      string `json:"ipNumber"`
	BankAccountNo string `json:"bankAccountNo"`
	IFSCCode      string `json:"ifscCode"`
	Status        string `json:"status"`
	Category      string `json:"category"`
	InactiveDate  string `json:"inactiveDate,omitempty"` // YYYY-MM-DD
}

type PayrollPeriod struct {
	ID             string `json:"id"`
	Month          int    `json:"month"`
	Year           int    `json:"year"`
	Status         string `json:"status"`
	LastWorkingDay string `json:"lastWorkingDay,omitempty"` // YYYY-MM-DD
}

type EmployeeRef struct {
	MemberID string `json:"memberId"`
	FullName string `json:"fullName"`
}

type PayrollEntry struct {
	ID               string      `json:"id"`
	Employee         EmployeeRef `json:"employee"`
	DaysWorked       int         `json:"daysWorked"`
	ActiveDays       []int       `json:"activeDays"` // day numbers 1..31
	WagesEarned      float64     `json:"wagesEarned"`
	AdvanceDeduction float64     `json:"advanceDeduction"`
	EPFMemberShare   float64     `json:"epfMemberShare"`
	ESIMemberShare   float64     `json:"esiMemberShare"`
	NetPayable       float64     `json:"netPayable"`
}

// AttendanceMismatch reports whether the marked days disagree with the
// daysWorked count. The server rejects a finalize while this holds; saving
// is still allowed so partially marked grids survive navigation.
func (e *PayrollEntry) AttendanceMismatch() bool {
	return len(e.ActiveDays) != e.DaysWorked
}

// ToggleDay marks or unmarks a calendar day on the entry.
func (e *PayrollEntry) ToggleDay(day int) {
	for i, d := range e.ActiveDays {
		if d == day {
			e.ActiveDays = append(e.ActiveDays[:i], e.ActiveDays[i+1:]...)
			return
		}
	}
	e.ActiveDays = append(e.ActiveDays, day)
}

func (e *PayrollEntry) DayActive(day int) bool {
	for _, d := range e.ActiveDays {
		if d == day {
			return true
		}
	}
	return false
}

// Issue slip statuses. EXTRACTED and NEEDS_VERIFICATION come from the
// server-side image extraction; EDITED is assigned locally when the user
// touches a row.
const (
	SlipExtracted         = "EXTRACTED"
	SlipNeedsVerification = "NEEDS_VERIFICATION"
	SlipEdited            = "EDITED"
)

type IssueSlip struct {
	ID              string  `json:"id,omitempty"`
	SiNo            string  `json:"siNo,omitempty"`
	SlipNumber      string  `json:"slipNumber"`
	EntryDate       string  `json:"entryDate"` // YYYY-MM-DD
	TotalBags       int     `json:"totalBags"`
	Clause          string  `json:"clause,omitempty"`
	Part            string  `json:"part,omitempty"`
	Status          string  `json:"status"`
	WarningMessage  string  `json:"warningMessage,omitempty"`
	ConfidenceScore float64 `json:"confidenceScore,omitempty"`
}

// MarkEdited reclassifies a slip after a manual correction and drops any
// extraction warning attached to it.
func (s *IssueSlip) MarkEdited() {
	s.Status = SlipEdited
	s.WarningMessage = ""
}

// Incomplete reports whether the slip is missing a field the save endpoint
// requires.
func (s *IssueSlip) Incomplete() bool {
	return s.SlipNumber == "" || s.EntryDate == "" || s.TotalBags == 0
}

// HasVerificationErrors gates the batch save: any unverified or incomplete
// row blocks the whole batch.
func HasVerificationErrors(slips []IssueSlip) bool {
	for i := range slips {
		if slips[i].Status == SlipNeedsVerification || slips[i].Incomplete() {
			return true
		}
	}
	return false
}

type UploadDocument struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	SubType    string `json:"subType"`
	FileName   string `json:"fileName"`
	FilePath   string `json:"filePath"`
	UploadDate string `json:"uploadDate"`
}

// FindDocumentSlot returns the document already occupying the (type, subType)
// slot, if any. One logical slot exists per (type, subType, period); the
// caller blocks a duplicate upload unless the user asks for a replacement.
func FindDocumentSlot(docs []UploadDocument, docType, subType string) *UploadDocument {
	for i := range docs {
		if docs[i].Type == docType && docs[i].SubType == subType {
			return &docs[i]
		}
	}
	return nil
}

// ErrorResponse is the error body shape the backend uses when it has a
// user-displayable message.
type ErrorResponse struct {
	Message string `json:"message"`
}

type ImportResult struct {
	Message string `json:"message"`
}
