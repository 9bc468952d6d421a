package console

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
	"github.com/fciautomation/payroll-admin-client/internal/sheets"
)

// EmployeePage is the employee master view: list on activation, each
// mutation re-reads the list so the view always reflects the last
// successful response.
type EmployeePage struct {
	backend   api.ClientInterface
	dialog    Dialog
	out       io.Writer
	Employees []model.Employee
}

func NewEmployeePage(backend api.ClientInterface, dialog Dialog, out io.Writer) *EmployeePage {
	return &EmployeePage{backend: backend, dialog: dialog, out: out}
}

func (p *EmployeePage) Activate(ctx context.Context) {
	employees, err := p.backend.Employees(ctx)
	if err != nil {
		p.dialog.Alert("Error", api.ErrorMessage(err))
		return
	}
	p.Employees = employees
	p.render()
}

func (p *EmployeePage) Add(ctx context.Context, emp model.Employee) {
	if _, err := p.backend.CreateEmployee(ctx, emp); err != nil {
		p.dialog.Alert("Error", "Failed to add employee: "+api.ErrorMessage(err))
		return
	}
	p.Activate(ctx)
}

func (p *EmployeePage) Edit(ctx context.Context, emp model.Employee) {
	if _, err := p.backend.UpdateEmployee(ctx, emp); err != nil {
		p.dialog.Alert("Error", "Failed to update employee: "+api.ErrorMessage(err))
		return
	}
	p.Activate(ctx)
}

func (p *EmployeePage) Delete(ctx context.Context, id string) {
	if !p.dialog.Confirm("Delete Employee", "Delete this employee permanently?") {
		return
	}
	if err := p.backend.DeleteEmployee(ctx, id); err != nil {
		p.dialog.Alert("Error", "Failed to delete employee: "+api.ErrorMessage(err))
		return
	}
	p.Activate(ctx)
}

// ImportWorkbook validates the workbook locally, uploads it, and reports
// how many employees the server created. The upload succeeds or fails as a
// batch.
func (p *EmployeePage) ImportWorkbook(ctx context.Context, fileName string, data []byte) {
	if err := sheets.ValidateEmployeeWorkbook(ctx, fileName, data); err != nil {
		p.dialog.Alert("Invalid File", err.Error())
		return
	}
	created, err := p.backend.ImportEmployees(ctx, fileName, data)
	if err != nil {
		p.dialog.Alert("Error", "Import Failed: "+api.ErrorMessage(err))
		return
	}
	p.dialog.Alert("Success", fmt.Sprintf("Imported %d employees", len(created)))
	p.Activate(ctx)
}

// ExportWorkbook writes the current list as an import-ready workbook, so
// bulk edits happen in a spreadsheet and come back through the import.
func (p *EmployeePage) ExportWorkbook(ctx context.Context, dir string) {
	data, err := sheets.BuildEmployeeWorkbook(ctx, p.Employees)
	if err != nil {
		p.dialog.Alert("Error", "Export failed: "+err.Error())
		return
	}
	path, err := saveFile(dir, &api.File{Name: "employee_master.xlsx", Data: data})
	if err != nil {
		p.dialog.Alert("Error", err.Error())
		return
	}
	fmt.Fprintln(p.out, "Saved workbook to", path)
}

func (p *EmployeePage) render() {
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER ID\tNAME\tCATEGORY\tUAN\tIP NUMBER\tBANK A/C\tSTATUS")
	for _, emp := range p.Employees {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			emp.MemberID, emp.FullName, emp.Category, emp.UANNumber, emp.IPNumber, emp.BankAccountNo, emp.Status)
	}
	_ = w.Flush()
}
