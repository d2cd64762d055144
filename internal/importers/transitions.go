package importers

import (
	"errors"
	"fmt"

	"github.com/ABFCode/Librium-sub000/internal/entities"
)

// ErrInvalidTransition is returned when a status change is not in the table.
var ErrInvalidTransition = errors.New("invalid import job transition")

var transitions = map[entities.ImportStatus][]entities.ImportStatus{
	entities.ImportStatusQueued:    {entities.ImportStatusParsing, entities.ImportStatusFailed},
	entities.ImportStatusParsing:   {entities.ImportStatusIngesting, entities.ImportStatusFailed},
	entities.ImportStatusIngesting: {entities.ImportStatusCompleted, entities.ImportStatusFailed},
	entities.ImportStatusFailed:    {entities.ImportStatusParsing},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to entities.ImportStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to entities.ImportStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	return nil
}
