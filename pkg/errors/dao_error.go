package errors

import "fmt"

// DaoError classifies failures from the file record persistence layer so the
// HTTP handlers can map them to a status code: NotFound becomes a 404,
// BadValidation a 400, anything else a 500.
type DaoError struct {
	Err           error
	Message       string
	NotFound      bool
	BadValidation bool
}

// NewRecordNotFoundError is the lookup-miss error for a file record UUID.
func NewRecordNotFoundError(uuid string) *DaoError {
	return &DaoError{NotFound: true, Message: "Could not find file record with UUID " + uuid}
}

func (e *DaoError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
}

func (e *DaoError) Unwrap() error {
	return e.Err
}
