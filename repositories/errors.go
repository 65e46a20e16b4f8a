package repositories

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned for lookups that match no document.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional update matched nothing
// because another writer holds the document.
var ErrConflict = errors.New("conflict")

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
