package common

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/colload/errors"
)

// LogInternalError logs err with a random reference and returns a user-facing error carrying only the reference.
func LogInternalError(err error) errors.ColloadError {
	var errRef string
	if id, err2 := uuid.NewRandom(); err2 != nil {
		log.Errorf("failed to generate uuid %v", err2)
	} else {
		errRef = id.String()
	}
	log.Errorf("internal error occurred with reference %s\n%+v", errRef, err)
	return errors.NewInternalError(errRef).WithCause(err)
}
