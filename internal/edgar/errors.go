package edgar

import "fmt"

// StuckError reports a retry loop that reached its pass ceiling with work
// still outstanding. The zero ceiling never produces one: those loops run
// until the queue drains or the context ends.
type StuckError struct {
	// Stage names the loop that got stuck, e.g. "index acquisition".
	Stage string

	// Passes is the number of retry passes performed.
	Passes int

	// Outstanding lists the URLs still unresolved when the loop gave up.
	Outstanding []string
}

// Error implements the error interface.
func (e *StuckError) Error() string {
	return fmt.Sprintf("%s stuck after %d retry passes: %d items outstanding",
		e.Stage, e.Passes, len(e.Outstanding))
}
