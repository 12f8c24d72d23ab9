package models

import (
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/identity/internal/common"
)

// A username starts with a lowercase letter, continues with lowercase letters
// or digits and may end with a single "_suffix" group.
var usernameRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)?$`)

// ValidateUsername reports common.ErrorInvalidArgument for names that do not
// follow the username pattern.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: username %q must match %s", common.ErrorInvalidArgument, username, usernameRegex)
	}
	return nil
}
