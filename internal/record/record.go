// Package record holds the instruction record model and its on-disk store.
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Date layouts used by the record.
const (
	ProgramDateLayout    = "2006-01-02"
	GenerationDateLayout = "2006-01-02 15:04:05"
)

var (
	// ErrMakeModelRequired is returned by Validate when car_make is blank.
	ErrMakeModelRequired = errors.New("make/model is required")
	// ErrInvalidProgramDate is returned when program_date is not YYYY-MM-DD.
	ErrInvalidProgramDate = errors.New("program date must be YYYY-MM-DD")
)

// Record is the flat data object describing one instruction document.
// Absent keys decode to empty strings and an empty image list.
type Record struct {
	CarMake               string   `json:"car_make" yaml:"car_make"`
	ModuleNo              string   `json:"module_no" yaml:"module_no"`
	Year                  string   `json:"year" yaml:"year"`
	Revision              string   `json:"revision" yaml:"revision"`
	ProgramNo             string   `json:"program_no" yaml:"program_no"`
	ProgramDate           string   `json:"program_date" yaml:"program_date"`
	ConnectionDescription string   `json:"connection_description" yaml:"connection_description"`
	FullDescription       string   `json:"full_description" yaml:"full_description"`
	ImagePaths            []string `json:"image_paths" yaml:"image_paths"`
	GenerationDate        string   `json:"generation_date" yaml:"generation_date"`
	UserEmail             string   `json:"user_email" yaml:"user_email"`
}

// Validate performs the caller-side checks done before rendering.
func (r Record) Validate() error {
	if strings.TrimSpace(r.CarMake) == "" {
		return ErrMakeModelRequired
	}
	return ValidateProgramDate(r.ProgramDate)
}

// Stamp returns a copy of r carrying generation metadata.
func (r Record) Stamp(now time.Time, identity string) Record {
	r.GenerationDate = now.Format(GenerationDateLayout)
	r.UserEmail = identity
	r.ImagePaths = append([]string(nil), r.ImagePaths...)
	return r
}

// SuggestedBaseName returns "{car_make}-{module_no}" for default file names.
func (r Record) SuggestedBaseName() string {
	makeModel := strings.TrimSpace(r.CarMake)
	if makeModel == "" {
		makeModel = "new"
	}
	module := strings.TrimSpace(r.ModuleNo)
	if module == "" {
		module = "data"
	}
	return sanitizeFileName(makeModel + "-" + module)
}

// Merge overlays the non-empty fields of o on top of r.
func (r Record) Merge(o Record) Record {
	pick := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	pick(&r.CarMake, o.CarMake)
	pick(&r.ModuleNo, o.ModuleNo)
	pick(&r.Year, o.Year)
	pick(&r.Revision, o.Revision)
	pick(&r.ProgramNo, o.ProgramNo)
	pick(&r.ProgramDate, o.ProgramDate)
	pick(&r.ConnectionDescription, o.ConnectionDescription)
	pick(&r.FullDescription, o.FullDescription)
	pick(&r.GenerationDate, o.GenerationDate)
	pick(&r.UserEmail, o.UserEmail)
	if len(o.ImagePaths) > 0 {
		r.ImagePaths = append([]string(nil), o.ImagePaths...)
	}
	return r
}

// ValidateProgramDate accepts an empty string or a YYYY-MM-DD date.
func ValidateProgramDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(ProgramDateLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidProgramDate, s)
	}
	return nil
}

// NonBlankLines splits text on newlines and drops whitespace-only lines.
// Kept lines are returned verbatim.
func NonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
