package classeviva

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
)

// Subject is a subject taught on a specific class (e.g. Informatica on 1A).
type Subject struct {
	ClassName        string `json:"class_name"`
	ClassDescription string `json:"class_description"`
	Name             string `json:"subject_name"`
	RosterUrl        string `json:"roster_url"`
	GradesUrl        string `json:"grades_url"`
}

func (s Subject) String() string {
	return fmt.Sprintf("%s (%s) - %s", s.ClassName, s.ClassDescription, s.Name)
}

// ClassCode returns the remote class code carried by the roster url, or ""
// when the url has none.
func (s Subject) ClassCode(param string) string {
	parsed, err := url.Parse(s.RosterUrl)
	if err != nil {
		return ""
	}
	return parsed.Query().Get(param)
}

// TermUrls are the per-term grade and test pages of a subject, index i of
// both slices is term i in discovery order.
type TermUrls struct {
	Grades []string `json:"grades"`
	Tests  []string `json:"tests"`
}

// Class is a class as seen by its coordinator, RemoteCode keys every
// coordinator-scoped query.
type Class struct {
	Name       string `json:"name"`
	RemoteCode string `json:"remote_code"`
}

type Student struct {
	Name     string    `json:"name"`
	Birthday time.Time `json:"birthday"`
}

func (s Student) String() string {
	if s.Birthday.IsZero() {
		return s.Name
	}
	return fmt.Sprintf("%s (%s)", s.Name, s.Birthday.Format(time.DateOnly))
}

// AgeAt returns the age in completed years at the given date.
func (s Student) AgeAt(now time.Time) int {
	age := now.Year() - s.Birthday.Year()
	if now.Month() < s.Birthday.Month() ||
		(now.Month() == s.Birthday.Month() && now.Day() < s.Birthday.Day()) {
		age--
	}
	return age
}

// SanitizeName keeps letters and spaces only, stray markup and digits that
// leak into name cells are dropped.
func SanitizeName(name string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || r == ' ' {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return -1
	}, name)
	return strings.Join(strings.Fields(kept), " ")
}

type Grade struct {
	Subject string `json:"subject_name"`
	// nil means no grade, which is not the same as 0.
	Value *float64 `json:"grade"`
}

// SanitizedSubject returns the short display alias of the subject.
func (g Grade) SanitizedSubject() string {
	return SubjectAlias(g.Subject)
}

// StudentGrades is one row of the coordinator averages page, Grades follow
// the page's subject column order.
type StudentGrades struct {
	Student *Student `json:"student"`
	Grades  []Grade  `json:"grades"`
}

// StudentScores is one row of a tests page, Scores follow the page's test
// column order and nil means the student did not take that test.
type StudentScores struct {
	Student *Student `json:"student"`
	Scores  []*int   `json:"scores"`
}

func (s StudentScores) String() string {
	parts := make([]string, len(s.Scores))
	for i, score := range s.Scores {
		if score == nil {
			parts[i] = "-"
			continue
		}
		parts[i] = fmt.Sprint(*score)
	}
	return fmt.Sprintf("%s -> %s", s.Student.Name, strings.Join(parts, " "))
}
