// Package console holds the page controllers of the administration client.
// Each page follows the same shape: activate fetches and renders, an action
// issues one write and re-reads, and failures surface through the Dialog
// rather than returning half-rendered state.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/auth"
	"github.com/fciautomation/payroll-admin-client/internal/guard"
	"github.com/fciautomation/payroll-admin-client/internal/model"
	"github.com/fciautomation/payroll-admin-client/internal/notify"
	"github.com/fciautomation/payroll-admin-client/internal/session"
)

// Dialog is the user-notice surface: request failures become alerts,
// destructive actions ask for confirmation first.
type Dialog interface {
	Alert(title, message string)
	Confirm(title, message string) bool
}

// StdioDialog renders dialogs on the terminal.
type StdioDialog struct {
	In  *bufio.Reader
	Out io.Writer
}

func NewStdioDialog() *StdioDialog {
	return &StdioDialog{
		In:  bufio.NewReader(os.Stdin),
		Out: os.Stdout,
	}
}

func (d *StdioDialog) Alert(title, message string) {
	fmt.Fprintf(d.Out, "\n[%s] %s\n", title, message)
}

func (d *StdioDialog) Confirm(title, message string) bool {
	fmt.Fprintf(d.Out, "\n[%s] %s (y/N): ", title, message)
	line, err := d.In.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// Config is the slice of the application config the console needs.
type Config interface {
	SessionStore() *session.Store
	AuthEndpoint() *auth.Client
	APIEndpoint() api.ClientInterface
	RouteGuard() *guard.Guard
	DownloadDir() string
}

type Console struct {
	store     *session.Store
	authAPI   *auth.Client
	backend   api.ClientInterface
	nav       *guard.Guard
	dialog    Dialog
	notifier  *notify.Notifier
	downloads string
	out       io.Writer
	in        *bufio.Reader
}

func New(cfg Config, dialog Dialog, notifier *notify.Notifier) *Console {
	return &Console{
		store:     cfg.SessionStore(),
		authAPI:   cfg.AuthEndpoint(),
		backend:   cfg.APIEndpoint(),
		nav:       cfg.RouteGuard(),
		dialog:    dialog,
		notifier:  notifier,
		downloads: cfg.DownloadDir(),
		out:       os.Stdout,
		in:        bufio.NewReader(os.Stdin),
	}
}

// Run drives the sign-in loop and dispatches to the page matching the
// guard-resolved destination until the user exits.
func (c *Console) Run(ctx context.Context) error {
	c.store.Subscribe(func(role string) {
		if role == "" {
			fmt.Fprintln(c.out, "Signed out.")
		}
	})

	for {
		if c.store.Role() == "" {
			if !c.login(ctx) {
				return nil
			}
		}

		if ok, err := c.authAPI.CheckServerSession(ctx); err == nil && !ok {
			c.dialog.Alert("Server Restarted", "Server was restarted. Please login again.")
			continue
		}

		if done := c.menu(ctx); done {
			return nil
		}
	}
}

func (c *Console) login(ctx context.Context) bool {
	fmt.Fprint(c.out, "Username (blank to quit): ")
	username, _ := c.in.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	fmt.Fprint(c.out, "Password: ")
	password, _ := c.in.ReadString('\n')
	password = strings.TrimSpace(password)

	resp, err := c.authAPI.Login(ctx, username, password)
	if err != nil {
		c.dialog.Alert("Login Failed", api.ErrorMessage(err))
		return true
	}
	log.WithContext(ctx).Info("logged in with role: ", resp.Role)
	fmt.Fprintf(c.out, "Welcome. Landing page: %s\n", guard.HomePath(resp.Role))
	return true
}

func (c *Console) menu(ctx context.Context) bool {
	fmt.Fprintln(c.out, "\nPages: employees, dashboard, entry, attendance, reports, upload, billing, logout, quit")
	fmt.Fprint(c.out, "> ")
	line, err := c.in.ReadString('\n')
	if err != nil {
		return true
	}

	choice := strings.TrimSpace(strings.ToLower(line))
	dest, ok := pageDestinations[choice]
	if !ok {
		switch choice {
		case "logout":
			c.store.Clear()
			return false
		case "quit", "exit":
			return true
		case "":
			return false
		default:
			c.dialog.Alert("Unknown page", choice)
			return false
		}
	}

	resolved := c.nav.Resolve(dest)
	if resolved != dest {
		c.dialog.Alert("Not Authorized", fmt.Sprintf("Redirected to %s", resolved))
		return false
	}

	c.open(ctx, choice)
	return false
}

var pageDestinations = map[string]string{
	"employees":  "/admin/employees",
	"dashboard":  "/user/home",
	"entry":      "/payroll/entry/latest",
	"attendance": "/payroll/attendance-casual/latest",
	"reports":    "/reports",
	"upload":     "/upload",
	"billing":    "/billing",
}

func (c *Console) open(ctx context.Context, page string) {
	switch page {
	case "employees":
		c.openEmployees(ctx)
	case "dashboard":
		c.openDashboard(ctx)
	case "entry":
		if periodID := c.promptPeriod(ctx); periodID != "" {
			c.runEntry(ctx, periodID)
		}
	case "attendance":
		if periodID := c.promptPeriod(ctx); periodID != "" {
			c.runAttendance(ctx, periodID)
		}
	case "reports":
		c.openReports(ctx)
	case "upload":
		c.openUpload(ctx)
	case "billing":
		c.openBilling(ctx)
	}
}

func (c *Console) openEmployees(ctx context.Context) {
	page := NewEmployeePage(c.backend, c.dialog, c.out)
	page.Activate(ctx)
	for {
		switch action := c.readLine("\nemployees (add, edit, delete, import, export, back): "); action {
		case "add":
			page.Add(ctx, c.readEmployee(model.Employee{Status: model.EmployeeActive, Category: model.CategoryHandler}))
		case "edit":
			memberID := c.readLine("Member id: ")
			existing := findEmployee(page.Employees, memberID)
			if existing == nil {
				c.dialog.Alert("Not Found", memberID)
				continue
			}
			page.Edit(ctx, c.readEmployee(*existing))
		case "delete":
			memberID := c.readLine("Member id: ")
			existing := findEmployee(page.Employees, memberID)
			if existing == nil {
				c.dialog.Alert("Not Found", memberID)
				continue
			}
			page.Delete(ctx, existing.ID)
		case "import":
			if fileName, data, ok := c.readFile("Workbook path: "); ok {
				page.ImportWorkbook(ctx, fileName, data)
			}
		case "export":
			page.ExportWorkbook(ctx, c.downloads)
		case "back", "":
			return
		default:
			c.dialog.Alert("Unknown action", action)
		}
	}
}

func (c *Console) openDashboard(ctx context.Context) {
	page := NewDashboardPage(c.backend, c.dialog, c.out)
	page.Activate(ctx)
	for {
		switch action := c.readLine("\ndashboard (start, back): "); action {
		case "start":
			month, ok := c.readInt("Month: ")
			if !ok {
				continue
			}
			year, ok := c.readInt("Year: ")
			if !ok {
				continue
			}
			req := api.CreatePeriodRequest{Month: month, Year: year}
			if prefill, found := page.PrefillLastWorkingDay(month, year); found {
				req.LastWorkingDay = prefill
			}
			if v := c.readLine(fmt.Sprintf("Last working day [%s]: ", req.LastWorkingDay)); v != "" {
				req.LastWorkingDay = v
			}
			mode := ModePayroll
			if c.readLine("Casual attendance? (y/N): ") == "y" {
				mode = ModeCasual
			}
			dest, err := page.StartEntry(ctx, req, mode)
			if err != nil {
				continue
			}
			c.openDestination(ctx, dest)
			return
		case "back", "":
			return
		default:
			c.dialog.Alert("Unknown action", action)
		}
	}
}

// openDestination routes an entry destination straight into its page, so
// starting a period drops the user into the grid it created.
func (c *Console) openDestination(ctx context.Context, dest string) {
	if periodID := strings.TrimPrefix(dest, "/payroll/attendance-casual/"); periodID != dest {
		c.runAttendance(ctx, periodID)
		return
	}
	if periodID := strings.TrimPrefix(dest, "/payroll/entry/"); periodID != dest {
		c.runEntry(ctx, periodID)
	}
}

func (c *Console) runEntry(ctx context.Context, periodID string) {
	page := NewEntryPage(c.backend, c.dialog, c.out, c.notifier)
	page.Activate(ctx, periodID)
	for {
		switch action := c.readLine("\nentry (edit, save, finalize, reopen, template, import, utr, back): "); action {
		case "edit":
			c.editEntry(page)
		case "save":
			_ = page.SaveAndCalculate(ctx)
		case "finalize":
			page.Finalize(ctx)
		case "reopen":
			page.Reopen(ctx)
		case "template":
			page.DownloadTemplate(ctx, c.downloads)
		case "import":
			if fileName, data, ok := c.readFile("Workbook path: "); ok {
				page.ImportWorkbook(ctx, fileName, data)
			}
		case "utr":
			if fileName, data, ok := c.readFile("UTR sheet path: "); ok {
				page.ImportUTR(ctx, fileName, data)
			}
		case "back", "":
			return
		default:
			c.dialog.Alert("Unknown action", action)
		}
	}
}

// editEntry edits the user-entered columns of one grid row. Blank keeps
// the current value; the derived columns come back from the next save.
func (c *Console) editEntry(page *EntryPage) {
	memberID := c.readLine("Member id: ")
	for i := range page.Entries {
		if page.Entries[i].Employee.MemberID != memberID {
			continue
		}
		entry := &page.Entries[i]
		if v := c.readLine(fmt.Sprintf("Days worked [%d]: ", entry.DaysWorked)); v != "" {
			if days, err := strconv.Atoi(v); err == nil {
				entry.DaysWorked = days
			}
		}
		if v := c.readLine(fmt.Sprintf("Wages earned [%.2f]: ", entry.WagesEarned)); v != "" {
			if wages, err := strconv.ParseFloat(v, 64); err == nil {
				entry.WagesEarned = wages
			}
		}
		if v := c.readLine(fmt.Sprintf("Advance deduction [%.2f]: ", entry.AdvanceDeduction)); v != "" {
			if advance, err := strconv.ParseFloat(v, 64); err == nil {
				entry.AdvanceDeduction = advance
			}
		}
		return
	}
	c.dialog.Alert("Not Found", memberID)
}

func (c *Console) runAttendance(ctx context.Context, periodID string) {
	page := NewAttendancePage(c.backend, c.dialog, c.out)
	page.Activate(ctx, periodID)
	for {
		switch action := c.readLine("\nattendance (toggle, column, save, finalize, back): "); action {
		case "toggle":
			memberID := c.readLine("Member id: ")
			if day, ok := c.readInt("Day: "); ok {
				page.ToggleDay(memberID, day)
			}
		case "column":
			if day, ok := c.readInt("Day: "); ok {
				page.ToggleColumn(day)
			}
		case "save":
			_ = page.Save(ctx)
		case "finalize":
			page.Finalize(ctx)
		case "back", "":
			return
		default:
			c.dialog.Alert("Unknown action", action)
		}
	}
}

func (c *Console) openReports(ctx context.Context) {
	page := NewReportPage(c.backend, c.dialog, c.out, c.notifier, c.downloads)
	page.Activate(ctx)
	for {
		switch action := c.readLine("\nreports (download, back): "); action {
		case "download":
			periodID := c.readLine("Period id: ")
			reportType := c.readLine("Report type (wage, esi, epf, bulk): ")
			var paymentDate string
			if reportType == api.ReportBulkPayment {
				paymentDate = c.readLine("Payment date (YYYY-MM-DD): ")
			}
			page.Download(ctx, periodID, reportType, paymentDate)
		case "back", "":
			return
		default:
			c.dialog.Alert("Unknown action", action)
		}
	}
}

func (c *Console) openUpload(ctx context.Context) {
	page := NewUploadPage(c.backend, c.dialog, c.out)
	page.Activate(ctx)
	for {
		switch action := c.readLine("\nupload (load, upload, download, back): "); action {
		case "load":
			page.Load(ctx, c.readLine("Period id (blank for all): "))
		case "upload":
			fileName, data, ok := c.readFile("PDF path: ")
			if !ok {
				continue
			}
			req := api.UploadDocumentRequest{
				FileName: fileName,
				Data:     data,
				Type:     c.readLine("Type (ESI, EPF): "),
				SubType:  c.readLine("Sub type: "),
				PeriodID: c.readLine("Period id: "),
			}
			page.Upload(ctx, req)
		case "download":
			page.Download(ctx, c.readLine("Document id: "), c.downloads)
		case "back", "":
			return
		default:
			c.dialog.Alert("Unknown action", action)
		}
	}
}

func (c *Console) openBilling(ctx context.Context) {
	page := NewBillingPage(c.backend, c.dialog, c.out)
	page.Activate(ctx)
	for {
		switch action := c.readLine("\nbilling (extract, edit, remove, save, back): "); action {
		case "extract":
			var images []api.FilePart
			for {
				fileName, data, ok := c.readFile("Slip image path (blank to finish): ")
				if !ok {
					break
				}
				images = append(images, api.FilePart{Field: "files", FileName: fileName, Data: data})
			}
			if len(images) > 0 {
				page.Extract(ctx, images)
			}
		case "edit":
			index, ok := c.readInt("Row number: ")
			if !ok {
				continue
			}
			page.Edit(index-1, func(slip *model.IssueSlip) {
				if v := c.readLine(fmt.Sprintf("Slip number [%s]: ", slip.SlipNumber)); v != "" {
					slip.SlipNumber = v
				}
				if v := c.readLine(fmt.Sprintf("Entry date [%s]: ", slip.EntryDate)); v != "" {
					slip.EntryDate = v
				}
				if v := c.readLine(fmt.Sprintf("Total bags [%d]: ", slip.TotalBags)); v != "" {
					if bags, err := strconv.Atoi(v); err == nil {
						slip.TotalBags = bags
					}
				}
			})
		case "remove":
			if index, ok := c.readInt("Row number: "); ok {
				page.Remove(index - 1)
			}
		case "save":
			page.Save(ctx)
		case "back", "":
			return
		default:
			c.dialog.Alert("Unknown action", action)
		}
	}
}

func (c *Console) readLine(label string) string {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func (c *Console) readInt(label string) (int, bool) {
	value, err := strconv.Atoi(c.readLine(label))
	if err != nil {
		c.dialog.Alert("Invalid Input", "Enter a number.")
		return 0, false
	}
	return value, true
}

func (c *Console) readFile(label string) (string, []byte, bool) {
	path := c.readLine(label)
	if path == "" {
		return "", nil, false
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		c.dialog.Alert("Error", fmt.Sprintf("could not read %s: %v", path, err))
		return "", nil, false
	}
	return filepath.Base(path), data, true
}

// readEmployee prompts the master form fields. Blank keeps the value shown
// in brackets, so edits only touch what changed.
func (c *Console) readEmployee(emp model.Employee) model.Employee {
	field := func(label string, target *string) {
		if v := c.readLine(fmt.Sprintf("%s [%s]: ", label, *target)); v != "" {
			*target = v
		}
	}
	field("Member id", &emp.MemberID)
	field("Full name", &emp.FullName)
	field("UAN number", &emp.UANNumber)
	field("IP number", &emp.IPNumber)
	field("Bank account", &emp.BankAccountNo)
	field("IFSC code", &emp.IFSCCode)
	field("Category (CL, HL)", &emp.Category)
	field("Status (ACTIVE, INACTIVE)", &emp.Status)
	if emp.Status == model.EmployeeInactive {
		field("Inactive date (YYYY-MM-DD)", &emp.InactiveDate)
	}
	return emp
}

func findEmployee(employees []model.Employee, memberID string) *model.Employee {
	for i := range employees {
		if employees[i].MemberID == memberID {
			return &employees[i]
		}
	}
	return nil
}

func (c *Console) promptPeriod(ctx context.Context) string {
	periods, err := c.backend.Periods(ctx)
	if err != nil {
		c.dialog.Alert("Error", api.ErrorMessage(err))
		return ""
	}
	if len(periods) == 0 {
		c.dialog.Alert("No Periods", "Create a period from the dashboard first.")
		return ""
	}
	for _, p := range periods {
		fmt.Fprintf(c.out, "  %s  %02d/%d (%s)\n", p.ID, p.Month, p.Year, p.Status)
	}
	fmt.Fprint(c.out, "Period id: ")
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}
