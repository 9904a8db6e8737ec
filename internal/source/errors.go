package source

import "errors"

var (
	// ErrFetchCatalog: departments or the full job list could not be fetched.
	ErrFetchCatalog = errors.New("failed to fetch departments or the full job list")
	// ErrFetchDepartmentJobs: one department's job list could not be fetched.
	ErrFetchDepartmentJobs = errors.New("failed to fetch jobs for department")
)
