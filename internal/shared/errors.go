package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrBoardNotFound      = fmt.Errorf("board not found")
	ErrColumnNotFound     = fmt.Errorf("column not found")
	ErrNoLanes            = fmt.Errorf("target board has no lanes")

	// Run-fatal migration errors
	ErrSourceFetch       = fmt.Errorf("failed to fetch source cards")
	ErrFieldDefinitions  = fmt.Errorf("failed to fetch custom field definitions")
	ErrNothingToMigrate  = fmt.Errorf("no cards selected")
	ErrMigrationCanceled = fmt.Errorf("migration canceled")

	// Persistence errors
	ErrRecordNotFound = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
