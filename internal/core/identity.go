package core

import "github.com/vovakirdan/partyline/internal/utils"

// Identity is a registered chat participant.
type Identity struct {
	Name        string
	ConnID      string
	DisplayName string
	IPAddress   string
}

// PresentedName is the name other participants see.
func (i Identity) PresentedName() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Name
}

// normalizeName returns the uniqueness key for a participant name.
func normalizeName(name string) string {
	return utils.FoldName(name)
}
