// conf/validate.go

package conf

import (
	"fmt"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	// Validate MycoBank settings
	if err := validateMycoBankSettings(&settings.MycoBank); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate resolve pipeline settings
	if err := validateResolveSettings(&settings.Resolve); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Entrez settings
	if err := validateEntrezSettings(&settings.Entrez); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate iNaturalist settings
	if err := validateINaturalistSettings(&settings.INaturalist); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// If there are any errors, return the ValidationError
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateMycoBankSettings validates the MycoBank-specific settings
func validateMycoBankSettings(settings *MycoBankSettings) error {
	var errs []string

	// The access token itself is checked at client construction, a missing
	// token should not prevent the sequence tools from running
	if settings.BaseURL == "" {
		errs = append(errs, "MycoBank base URL must not be empty")
	}

	if settings.Timeout <= 0 {
		errs = append(errs, "MycoBank timeout must be greater than 0 seconds")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateResolveSettings validates the name resolution pipeline settings
func validateResolveSettings(settings *ResolveSettings) error {
	var errs []string

	if settings.BatchSize < 1 {
		errs = append(errs, "resolve batch size must be at least 1")
	}

	if settings.Output == "" {
		errs = append(errs, "resolve output path must not be empty")
	}

	if settings.ExcludedOutput == "" {
		errs = append(errs, "resolve excluded output path must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateEntrezSettings validates the NCBI Entrez settings
func validateEntrezSettings(settings *EntrezSettings) error {
	var errs []string

	if settings.BaseURL == "" {
		errs = append(errs, "Entrez base URL must not be empty")
	}

	if settings.BatchSize < 1 {
		errs = append(errs, "Entrez batch size must be at least 1")
	}

	if settings.Timeout <= 0 {
		errs = append(errs, "Entrez timeout must be greater than 0 seconds")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateINaturalistSettings validates the iNaturalist settings
func validateINaturalistSettings(settings *INaturalistSettings) error {
	var errs []string

	if settings.BaseURL == "" {
		errs = append(errs, "iNaturalist base URL must not be empty")
	}

	if settings.PerPage < 1 {
		errs = append(errs, "iNaturalist per page value must be at least 1")
	}

	if settings.Delay < 0 {
		errs = append(errs, "iNaturalist delay must not be negative")
	}

	if settings.Timeout <= 0 {
		errs = append(errs, "iNaturalist timeout must be greater than 0 seconds")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
