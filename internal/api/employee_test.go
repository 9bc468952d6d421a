package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

var defaultClient = &client{}

func getTestCases[T any](t *testing.T, mockRes *T, expectedInputURL string, apiName string) []struct {
	name    string
	client  *client
	want    *T
	handler func(w http.ResponseWriter, r *http.Request)
	err     error
} {
	tests := []struct {
		name    string
		client  *client
		want    *T
		handler func(w http.ResponseWriter, r *http.Request)
		err     error
	}{
		{
			name:   "200-success",
			client: defaultClient,
			want:   mockRes,
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, expectedInputURL, r.RequestURI)

				c, err := json.Marshal(mockRes)
				require.NoError(t, err)

				_, err = w.Write(c)
				require.NoError(t, err)
			},
		},
		{
			name:   "Error-ReadingRespData",
			client: defaultClient,
			handler: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, expectedInputURL, r.RequestURI)

				c, err := json.Marshal("™™¡¡¡¡ß")
				require.NoError(t, err)

				_, err = w.Write(c)
				require.NoError(t, err)
			},
			err: fmt.Errorf("there was an error un marshalling the %s resp. cause: json: cannot unmarshal string into Go value", apiName),
		},
		{
			name:   "401-Unauthorized",
			client: defaultClient,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			err: fmt.Errorf("payroll service (%s) returned status 401", apiName),
		},
		{
			name:   "500-ServerFault",
			client: defaultClient,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			err: fmt.Errorf("payroll service (%s) returned status 500", apiName),
		},
	}
	return tests
}

func TestEmployees(t *testing.T) {
	tests := getTestCases[[]model.Employee](t, &[]model.Employee{
		{
			ID:            "emp-1",
			MemberID:      "M001",
			FullName:      "Ravi Kumar",
			UANNumber:     "100200300400",
			IPNumber:      "9001001",
			BankAccountNo: "123456789012",
			IFSCCode:      "SBIN0001234",
			Status:        model.EmployeeActive,
			Category:      model.CategoryCasual,
		},
	}, "/employees", "Employees")

	for _, test := range tests {
		tt := test
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			s := httptest.NewServer(http.HandlerFunc(tt.handler))
			defer s.Close()
			tt.client.HTTPCommand = s.Client()
			tt.client.URL = s.URL

			got, err := tt.client.Employees(ctx)
			if err != nil || tt.err != nil {
				require.ErrorContains(t, err, tt.err.Error())
			} else {
				require.Equal(t, *tt.want, got)
			}
		})
	}
}

func TestCreateEmployee(t *testing.T) {
	emp := model.Employee{
		MemberID: "M002",
		FullName: "Sunita Devi",
		Status:   model.EmployeeActive,
		Category: model.CategoryHandler,
	}

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/employees", r.RequestURI)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got model.Employee
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Equal(t, emp, got)

		got.ID = "emp-2"
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(got))
	}))
	defer s.Close()

	c := NewClient(s.URL, s.Client())
	created, err := c.CreateEmployee(context.Background(), emp)
	require.NoError(t, err)
	require.Equal(t, "emp-2", created.ID)
	require.Equal(t, emp.MemberID, created.MemberID)
}

func TestUpdateEmployee(t *testing.T) {
	emp := model.Employee{ID: "emp-2", MemberID: "M002", FullName: "Sunita Devi", Status: model.EmployeeInactive, InactiveDate: "2026-08-15"}

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/employees/emp-2", r.RequestURI)
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewEncoder(w).Encode(emp))
	}))
	defer s.Close()

	c := NewClient(s.URL, s.Client())
	updated, err := c.UpdateEmployee(context.Background(), emp)
	require.NoError(t, err)
	require.Equal(t, model.EmployeeInactive, updated.Status)
}

func TestDeleteEmployee(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/employees/emp-2", r.RequestURI)
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer s.Close()

	c := NewClient(s.URL, s.Client())
	require.NoError(t, c.DeleteEmployee(context.Background(), "emp-2"))
}

func TestDeleteEmployeeNotFound(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		require.NoError(t, json.NewEncoder(w).Encode(model.ErrorResponse{Message: "employee not found"}))
	}))
	defer s.Close()

	c := NewClient(s.URL, s.Client())
	err := c.DeleteEmployee(context.Background(), "ghost")
	require.Error(t, err)
	require.True(t, IsStatus(err, http.StatusNotFound))
	require.Equal(t, "employee not found", ErrorMessage(err))
}

func TestImportEmployees(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/employees/upload", r.RequestURI)
		require.NoError(t, r.ParseMultipartForm(32<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "staff.xlsx", header.Filename)

		require.NoError(t, json.NewEncoder(w).Encode([]model.Employee{{ID: "emp-3", MemberID: "M003"}}))
	}))
	defer s.Close()

	c := NewClient(s.URL, s.Client())
	created, err := c.ImportEmployees(context.Background(), "staff.xlsx", []byte("workbook-bytes"))
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, "M003", created[0].MemberID)
}

func TestErrorHelpers(t *testing.T) {
	conflict := &StatusError{APIName: "CreatePeriod", Code: http.StatusConflict, Message: "Period already exists"}
	require.True(t, IsConflict(conflict))
	require.False(t, IsUnauthorized(conflict))
	require.Equal(t, "Period already exists", ErrorMessage(conflict))

	require.False(t, IsConflict(errors.New("plain")))
	require.False(t, IsUnreachable(errors.New("plain")))
}
