// Package stubserver is an in-memory stand-in for the payroll backend. The
// blackbox suite runs the whole client stack against it: login, token
// expiry and refresh, CRUD round trips, period lifecycle, file endpoints.
// Behavior mirrors the real API contracts; wage calculation is a simple
// deterministic stand-in.
package stubserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/tealeg/xlsx"

	"github.com/fciautomation/payroll-admin-client/internal/model"
	"github.com/fciautomation/payroll-admin-client/internal/util"
)

type user struct {
	password string
	role     string
}

type Server struct {
	mu sync.Mutex

	router *mux.Router

	users        map[string]user
	sessionID    string
	accessToken  string
	refreshToken string
	refreshCalls int
	failRefresh  bool

	seq       int
	employees []model.Employee
	periods   []model.PayrollPeriod
	entries   map[string][]model.PayrollEntry
	documents []model.UploadDocument
	slips     []model.IssueSlip
}

func New() *Server {
	s := &Server{
		users: map[string]user{
			"admin":  {password: "admin123", role: model.RoleAdmin},
			"clerk":  {password: "clerk123", role: model.RoleUser},
			"biller": {password: "bill123", role: model.RoleBill},
		},
		sessionID: fmt.Sprintf("%d", time.Now().UnixNano()),
		entries:   map[string][]model.PayrollEntry{},
	}
	s.routes()
	return s
}

// Handler wraps the router the way the production server does: CORS for the
// browser client plus panic recovery.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedHeaders:   []string{"Access-Control-Allow-Origin", "Content-Type", "Origin", "Accept-Encoding", "Accept-Language", "Authorization"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS", "DELETE"},
		AllowCredentials: true,
	})
	return handlers.RecoveryHandler()(c.Handler(s.router))
}

// ExpireToken invalidates the currently issued access token: every request
// still carrying it will 401 until the client refreshes.
func (s *Server) ExpireToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = s.nextID("expired")
}

// FailRefresh forces subsequent refresh calls to be rejected.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// RefreshCalls reports how many refresh requests reached the server.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func (s *Server) routes() {
	r := mux.NewRouter().StrictSlash(true)

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/status", s.handleStatus).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.requireAuth)

	protected.HandleFunc("/employees", s.handleListEmployees).Methods(http.MethodGet)
	protected.HandleFunc("/employees", s.handleCreateEmployee).Methods(http.MethodPost)
	protected.HandleFunc("/employees/upload", s.handleImportEmployees).Methods(http.MethodPost)
	protected.HandleFunc("/employees/{id}", s.handleUpdateEmployee).Methods(http.MethodPut)
	protected.HandleFunc("/employees/{id}", s.handleDeleteEmployee).Methods(http.MethodDelete)

	protected.HandleFunc("/payroll/periods", s.handleListPeriods).Methods(http.MethodGet)
	protected.HandleFunc("/payroll/periods", s.handleCreatePeriod).Methods(http.MethodPost)
	protected.HandleFunc("/payroll/periods/{id}", s.handleGetPeriod).Methods(http.MethodGet)
	protected.HandleFunc("/payroll/periods/{id}/close", s.handleClosePeriod).Methods(http.MethodPost)
	protected.HandleFunc("/payroll/periods/{id}/reopen", s.handleReopenPeriod).Methods(http.MethodPost)
	protected.HandleFunc("/payroll/periods/{id}/entries", s.handlePeriodEntries).Methods(http.MethodGet)
	protected.HandleFunc("/payroll/entries", s.handleSaveEntries).Methods(http.MethodPut)
	protected.HandleFunc("/payroll/import/template", s.handleTemplate).Methods(http.MethodGet)
	protected.HandleFunc("/payroll/import/utr/{id}", s.handleImportUTR).Methods(http.MethodPost)
	protected.HandleFunc("/payroll/import/{id}", s.handleImportEntries).Methods(http.MethodPost)

	protected.HandleFunc("/reports/{periodId}/{type}", s.handleReport).Methods(http.MethodGet)

	protected.HandleFunc("/upload", s.handleListDocuments).Methods(http.MethodGet)
	protected.HandleFunc("/upload", s.handleUploadDocument).Methods(http.MethodPost)
	protected.HandleFunc("/upload/{id}/download", s.handleDownloadDocument).Methods(http.MethodGet)

	protected.HandleFunc("/billing/issue/list", s.handleListSlips).Methods(http.MethodGet)
	protected.HandleFunc("/billing/issue/extract", s.handleExtractSlips).Methods(http.MethodPost)
	protected.HandleFunc("/billing/issue/save", s.handleSaveSlips).Methods(http.MethodPost)

	s.router = r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		valid := token != "" && token == s.accessToken
		s.mu.Unlock()

		if !valid {
			util.WithBodyAndStatus(model.ErrorResponse{Message: "invalid or expired token"}, http.StatusUnauthorized, w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad request"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.users[req.Username]
	if !ok || account.password != req.Password {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "invalid credentials"}, http.StatusUnauthorized, w)
		return
	}

	s.accessToken = "mock-token:" + s.sessionID
	s.refreshToken = s.nextID("refresh")

	util.WithBodyAndStatus(model.LoginResponse{
		Token:        s.accessToken,
		RefreshToken: s.refreshToken,
		Role:         account.role,
		SessionID:    s.sessionID,
	}, http.StatusOK, w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad request"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshCalls++
	if s.failRefresh || req.RefreshToken == "" || req.RefreshToken != s.refreshToken {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "refresh token rejected"}, http.StatusUnauthorized, w)
		return
	}

	s.accessToken = s.nextID("token")
	s.refreshToken = s.nextID("refresh")

	util.WithBodyAndStatus(model.RefreshResponse{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
	}, http.StatusOK, w)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	util.WithBodyAndStatus(model.SessionStatus{SessionID: s.sessionID}, http.StatusOK, w)
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]model.Employee, len(s.employees))
	copy(list, s.employees)
	util.WithBodyAndStatus(list, http.StatusOK, w)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var emp model.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad request"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	emp.ID = s.nextID("emp")
	if emp.Status == "" {
		emp.Status = model.EmployeeActive
	}
	s.employees = append(s.employees, emp)
	util.WithBodyAndStatus(emp, http.StatusCreated, w)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var emp model.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad request"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.employees {
		if s.employees[i].ID == id {
			emp.ID = id
			s.employees[i] = emp
			util.WithBodyAndStatus(emp, http.StatusOK, w)
			return
		}
	}
	util.WithBodyAndStatus(model.ErrorResponse{Message: "employee not found"}, http.StatusNotFound, w)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.employees {
		if s.employees[i].ID == id {
			s.employees = append(s.employees[:i], s.employees[i+1:]...)
			util.WithBodyAndStatus(nil, http.StatusOK, w)
			return
		}
	}
	util.WithBodyAndStatus(model.ErrorResponse{Message: "employee not found"}, http.StatusNotFound, w)
}

// handleImportEmployees parses the uploaded workbook and creates one
// employee per data row, the way the real import does.
func (s *Server) handleImportEmployees(w http.ResponseWriter, r *http.Request) {
	data, err := readMultipartFile(r, "file")
	if err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: err.Error()}, http.StatusBadRequest, w)
		return
	}

	excelFile, err := xlsx.OpenBinary(data)
	if err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "file is not a workbook"}, http.StatusBadRequest, w)
		return
	}
	if len(excelFile.Sheets) == 0 {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "workbook has no sheets"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created []model.Employee
	for i, row := range excelFile.Sheets[0].Rows {
		if i == 0 || len(row.Cells) < 7 {
			continue
		}
		emp := model.Employee{
			ID:            s.nextID("emp"),
			MemberID:      row.Cells[0].String(),
			FullName:      row.Cells[1].String(),
			UANNumber:     row.Cells[2].String(),
			IPNumber:      row.Cells[3].String(),
			BankAccountNo: row.Cells[4].String(),
			IFSCCode:      row.Cells[5].String(),
			Category:      row.Cells[6].String(),
			Status:        model.EmployeeActive,
		}
		if emp.MemberID == "" {
			continue
		}
		s.employees = append(s.employees, emp)
		created = append(created, emp)
	}
	util.WithBodyAndStatus(created, http.StatusOK, w)
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]model.PayrollPeriod, len(s.periods))
	copy(list, s.periods)
	util.WithBodyAndStatus(list, http.StatusOK, w)
}

func (s *Server) handleCreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month          int    `json:"month"`
		Year           int    `json:"year"`
		LastWorkingDay string `json:"lastWorkingDay"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad request"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.periods {
		if p.Month == req.Month && p.Year == req.Year {
			util.WithBodyAndStatus(model.ErrorResponse{Message: "Period already exists"}, http.StatusConflict, w)
			return
		}
	}

	period := model.PayrollPeriod{
		ID:             s.nextID("period"),
		Month:          req.Month,
		Year:           req.Year,
		Status:         model.PeriodOpen,
		LastWorkingDay: req.LastWorkingDay,
	}
	s.periods = append(s.periods, period)

	// seed one entry per active employee
	var seeded []model.PayrollEntry
	for _, emp := range s.employees {
		if emp.Status != model.EmployeeActive {
			continue
		}
		seeded = append(seeded, model.PayrollEntry{
			ID:         s.nextID("entry"),
			Employee:   model.EmployeeRef{MemberID: emp.MemberID, FullName: emp.FullName},
			ActiveDays: []int{},
		})
	}
	s.entries[period.ID] = seeded

	util.WithBodyAndStatus(period, http.StatusCreated, w)
}

func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if period := s.findPeriod(id); period != nil {
		util.WithBodyAndStatus(*period, http.StatusOK, w)
		return
	}
	util.WithBodyAndStatus(model.ErrorResponse{Message: "period not found"}, http.StatusNotFound, w)
}

// handleClosePeriod transitions to CLOSED. Closing an already closed period
// is a no-op returning the current state, and repeated calls behave the
// same.
func (s *Server) handleClosePeriod(w http.ResponseWriter, r *http.Request) {
	s.transitionPeriod(w, r, model.PeriodClosed)
}

func (s *Server) handleReopenPeriod(w http.ResponseWriter, r *http.Request) {
	s.transitionPeriod(w, r, model.PeriodOpen)
}

func (s *Server) transitionPeriod(w http.ResponseWriter, r *http.Request, status string) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if period := s.findPeriod(id); period != nil {
		period.Status = status
		util.WithBodyAndStatus(*period, http.StatusOK, w)
		return
	}
	util.WithBodyAndStatus(model.ErrorResponse{Message: "period not found"}, http.StatusNotFound, w)
}

func (s *Server) handlePeriodEntries(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.entries[id]
	if entries == nil {
		entries = []model.PayrollEntry{}
	}
	util.WithBodyAndStatus(entries, http.StatusOK, w)
}

// handleSaveEntries persists the grid and applies the server-side wage
// calculation stand-in: EPF 12%, ESI 0.75%, net = wages - advance - shares.
func (s *Server) handleSaveEntries(w http.ResponseWriter, r *http.Request) {
	var incoming []model.PayrollEntry
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad request"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range incoming {
		incoming[i].EPFMemberShare = round2(incoming[i].WagesEarned * 0.12)
		incoming[i].ESIMemberShare = round2(incoming[i].WagesEarned * 0.0075)
		incoming[i].NetPayable = round2(incoming[i].WagesEarned -
			incoming[i].AdvanceDeduction - incoming[i].EPFMemberShare - incoming[i].ESIMemberShare)

		for periodID, stored := range s.entries {
			for j := range stored {
				if stored[j].ID == incoming[i].ID {
					s.entries[periodID][j] = incoming[i]
				}
			}
		}
	}
	util.WithBodyAndStatus(incoming, http.StatusOK, w)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="Payroll_Import_Template.xlsx"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("template-bytes"))
}

func (s *Server) handleImportEntries(w http.ResponseWriter, r *http.Request) {
	if _, err := readMultipartFile(r, "file"); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: err.Error()}, http.StatusBadRequest, w)
		return
	}
	util.WithBodyAndStatus(model.ImportResult{Message: "Imported entries"}, http.StatusOK, w)
}

func (s *Server) handleImportUTR(w http.ResponseWriter, r *http.Request) {
	if _, err := readMultipartFile(r, "file"); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: err.Error()}, http.StatusBadRequest, w)
		return
	}
	util.WithBodyAndStatus(model.ImportResult{Message: "Imported UTR numbers"}, http.StatusOK, w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reportType := vars["type"]

	name := map[string]string{
		"esi":  "esi_return.xls",
		"epf":  "epf_return.txt",
		"bulk": "bulk_payment.txt",
	}[reportType]
	if name == "" {
		name = reportType + "_report.pdf"
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "report %s for period %s paymentDate=%s", reportType, vars["periodId"], r.URL.Query().Get("paymentDate"))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("periodId")

	s.mu.Lock()
	defer s.mu.Unlock()
	list := []model.UploadDocument{}
	for _, doc := range s.documents {
		if periodID == "" || strings.HasSuffix(doc.FilePath, "/"+periodID) {
			list = append(list, doc)
		}
	}
	util.WithBodyAndStatus(list, http.StatusOK, w)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad multipart body"}, http.StatusBadRequest, w)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "missing file"}, http.StatusBadRequest, w)
		return
	}
	defer file.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := model.UploadDocument{
		ID:         s.nextID("doc"),
		Type:       r.FormValue("type"),
		SubType:    r.FormValue("subType"),
		FileName:   header.Filename,
		FilePath:   "/store/" + r.FormValue("periodId"),
		UploadDate: time.Now().Format(time.RFC3339),
	}

	// replacement: a second upload into the same slot supersedes the first
	for i := range s.documents {
		if s.documents[i].Type == doc.Type && s.documents[i].SubType == doc.SubType && s.documents[i].FilePath == doc.FilePath {
			s.documents[i] = doc
			util.WithBodyAndStatus(doc, http.StatusOK, w)
			return
		}
	}
	s.documents = append(s.documents, doc)
	util.WithBodyAndStatus(doc, http.StatusCreated, w)
}

func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.documents {
		if doc.ID == id {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
			w.Header().Set("Content-Type", "application/pdf")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "document %s", doc.FileName)
			return
		}
	}
	util.WithBodyAndStatus(model.ErrorResponse{Message: "document not found"}, http.StatusNotFound, w)
}

func (s *Server) handleListSlips(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]model.IssueSlip, len(s.slips))
	copy(list, s.slips)
	util.WithBodyAndStatus(list, http.StatusOK, w)
}

// handleExtractSlips fakes the image extraction: every file becomes one
// slip, files named with a "blur" marker come back needing verification.
func (s *Server) handleExtractSlips(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad multipart body"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var slips []model.IssueSlip
	for i, header := range r.MultipartForm.File["files"] {
		slip := model.IssueSlip{
			SiNo:            fmt.Sprintf("%d", i+1),
			SlipNumber:      fmt.Sprintf("SL-%s", s.nextID("slip")),
			EntryDate:       time.Now().Format("2006-01-02"),
			TotalBags:       100 + i,
			Status:          model.SlipExtracted,
			ConfidenceScore: 0.95,
		}
		if strings.Contains(header.Filename, "blur") {
			slip.Status = model.SlipNeedsVerification
			slip.WarningMessage = "low confidence extraction"
			slip.ConfidenceScore = 0.4
			slip.TotalBags = 0
		}
		slips = append(slips, slip)
	}
	util.WithBodyAndStatus(slips, http.StatusOK, w)
}

func (s *Server) handleSaveSlips(w http.ResponseWriter, r *http.Request) {
	var slips []model.IssueSlip
	if err := json.NewDecoder(r.Body).Decode(&slips); err != nil {
		util.WithBodyAndStatus(model.ErrorResponse{Message: "bad request"}, http.StatusBadRequest, w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range slips {
		if slips[i].ID == "" {
			slips[i].ID = s.nextID("slip")
		}
		s.slips = append(s.slips, slips[i])
	}
	util.WithBodyAndStatus(nil, http.StatusOK, w)
}

func (s *Server) findPeriod(id string) *model.PayrollPeriod {
	for i := range s.periods {
		if s.periods[i].ID == id {
			return &s.periods[i]
		}
	}
	return nil
}

// nextID must be called with s.mu held.
func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func readMultipartFile(r *http.Request, field string) ([]byte, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("bad multipart body")
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing file")
	}
	defer file.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, file); err != nil {
		return nil, fmt.Errorf("could not read file")
	}
	return buf.Bytes(), nil
}
