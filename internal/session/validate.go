package session

import (
	"regexp"

	"github.com/huddlehq/huddle/internal/apperr"
)

// Session names become directory names under BaseDir.
var nameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateName rejects names that are not safe as a directory name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return apperr.Validationf("session name", "invalid session name %q: use up to 64 lowercase letters, digits, '-' or '_', starting with a letter or digit", name)
	}
	return nil
}
