package security

import (
	"fmt"
	"strings"
)

// Permission bits of the P entry in the encryption dictionary
const (
	bitPrint    = 0x04 // Bit 3
	bitModify   = 0x08 // Bit 4
	bitCopy     = 0x10 // Bit 5
	bitAnnotate = 0x20 // Bit 6
)

// PermissionNone grants nothing when used alone in ParsePermissions.
const PermissionNone = "none"

// Permissions are the reader rights of a protected instruction
type Permissions struct {
	Print    bool
	Modify   bool
	Copy     bool
	Annotate bool
}

// PermissionNames lists the names accepted by ParsePermissions.
func PermissionNames() []string {
	return []string{"print", "modify", "copy", "annotate"}
}

// ParsePermissions builds permissions from names such as "print" or
// "copy"; entries may hold comma separated lists. An empty list or
// "none" grants nothing.
func ParsePermissions(names []string) (Permissions, error) {
	var p Permissions
	for _, name := range splitNames(names) {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "print":
			p.Print = true
		case "modify":
			p.Modify = true
		case "copy":
			p.Copy = true
		case "annotate":
			p.Annotate = true
		case "", PermissionNone:
		default:
			return Permissions{}, fmt.Errorf("unknown permission %q (expected one of: %s)",
				name, strings.Join(PermissionNames(), ", "))
		}
	}
	return p, nil
}

func splitNames(names []string) []string {
	var out []string
	for _, name := range names {
		out = append(out, strings.Split(name, ",")...)
	}
	return out
}

// NewPermissions decodes the signed P value of an encryption dictionary
func NewPermissions(perms int32) Permissions {
	return Permissions{
		Print:    perms&bitPrint != 0,
		Modify:   perms&bitModify != 0,
		Copy:     perms&bitCopy != 0,
		Annotate: perms&bitAnnotate != 0,
	}
}

// Flags returns the granted rights as P-entry bits
func (p Permissions) Flags() byte {
	var flags byte
	if p.Print {
		flags |= bitPrint
	}
	if p.Modify {
		flags |= bitModify
	}
	if p.Copy {
		flags |= bitCopy
	}
	if p.Annotate {
		flags |= bitAnnotate
	}
	return flags
}

// GetAllowedOperations returns a list of allowed operations
func (p Permissions) GetAllowedOperations() []string {
	allowed := []string{}

	if p.Print {
		allowed = append(allowed, "print")
	}
	if p.Modify {
		allowed = append(allowed, "modify")
	}
	if p.Copy {
		allowed = append(allowed, "copy")
	}
	if p.Annotate {
		allowed = append(allowed, "annotate")
	}

	return allowed
}

// String returns a human-readable representation of the permissions
func (p Permissions) String() string {
	allowed := p.GetAllowedOperations()
	if len(allowed) == 0 {
		return "No permissions granted"
	}
	return fmt.Sprintf("Allowed: %s", strings.Join(allowed, ", "))
}
