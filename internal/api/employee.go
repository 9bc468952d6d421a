package api

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

// Employees fetches the full employee master.
func (c *client) Employees(ctx context.Context) ([]model.Employee, error) {
	httpRequest, err := c.newJSONRequest(ctx, http.MethodGet, c.buildEmployeesEndpoint(), nil)
	if err != nil {
		return nil, err
	}

	var response []model.Employee
	if err := c.do(ctx, "Employees", httpRequest, &response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) CreateEmployee(ctx context.Context, emp model.Employee) (*model.Employee, error) {
	log.WithContext(ctx).Info("Creating employee with member id: ", emp.MemberID)

	httpRequest, err := c.newJSONRequest(ctx, http.MethodPost, c.buildEmployeesEndpoint(), emp)
	if err != nil {
		return nil, err
	}

	response := &model.Employee{}
	if err := c.do(ctx, "CreateEmployee", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) UpdateEmployee(ctx context.Context, emp model.Employee) (*model.Employee, error) {
	log.WithContext(ctx).Info("Updating employee: ", emp.ID)

	httpRequest, err := c.newJSONRequest(ctx, http.MethodPut, c.buildEmployeeEndpoint(emp.ID), emp)
	if err != nil {
		return nil, err
	}

	response := &model.Employee{}
	if err := c.do(ctx, "UpdateEmployee", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) DeleteEmployee(ctx context.Context, id string) error {
	log.WithContext(ctx).Info("Deleting employee: ", id)

	httpRequest, err := c.newJSONRequest(ctx, http.MethodDelete, c.buildEmployeeEndpoint(id), nil)
	if err != nil {
		return err
	}
	return c.do(ctx, "DeleteEmployee", httpRequest, nil)
}

// ImportEmployees uploads an employee master workbook and returns the
// employees the server created from it. The import either succeeds as a
// batch or fails as a batch.
func (c *client) ImportEmployees(ctx context.Context, fileName string, data []byte) ([]model.Employee, error) {
	log.WithContext(ctx).Info("Importing employee workbook: ", fileName)

	httpRequest, err := c.newMultipartRequest(ctx, c.buildEmployeeUploadEndpoint(), nil, FilePart{
		Field:    "file",
		FileName: fileName,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}

	var response []model.Employee
	if err := c.do(ctx, "ImportEmployees", httpRequest, &response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) buildEmployeesEndpoint() string {
	return c.URL + "/employees"
}

func (c *client) buildEmployeeEndpoint(id string) string {
	return c.URL + "/employees/" + id
}

func (c *client) buildEmployeeUploadEndpoint() string {
	return c.URL + "/employees/upload"
}
