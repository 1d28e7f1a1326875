package models

import "fmt"

// ResultStatus is the outcome of an operation as shown to the user.
type ResultStatus struct {
	IsError bool   `json:"isError"`
	Message string `json:"message"`
}

// Success returns a non-error status.
func Success(message string) ResultStatus {
	return ResultStatus{Message: message}
}

// Failure returns an error status.
func Failure(message string) ResultStatus {
	return ResultStatus{IsError: true, Message: message}
}

// Failuref returns an error status with a formatted message.
func Failuref(format string, args ...any) ResultStatus {
	return ResultStatus{IsError: true, Message: fmt.Sprintf(format, args...)}
}

// FailureFrom converts an error into an error status.
func FailureFrom(err error) ResultStatus {
	if err == nil {
		return ResultStatus{IsError: true, Message: "unknown error"}
	}
	return ResultStatus{IsError: true, Message: err.Error()}
}

// Err returns the status as an error, or nil on success.
func (r ResultStatus) Err() error {
	if !r.IsError {
		return nil
	}
	return &StatusError{Message: r.Message}
}

// StatusError is the error form of a failed ResultStatus.
type StatusError struct {
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// DataImportResult is produced by the file import utility.
type DataImportResult struct {
	Status     ResultStatus `json:"resultStatus"`
	DataFrames []DataFrame  `json:"dataFrames"`
}
