// Package errors provides the classified errors grain reports to users.
//
// A ClassifiedError carries a category that decides the exit code, a
// severity, structured context and an optional hint. Template failures are
// converted into classified errors at the CLI boundary.
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "write output").
//		WithContext("path", rel).
//		Build()
package errors
