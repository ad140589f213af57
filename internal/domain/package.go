package domain

import (
	"strings"
	"time"
)

// PackageRef tags a class category or the way a reservation was paid.
type PackageRef string

const (
	PackageLMV    PackageRef = "LMV"
	PackageMJ     PackageRef = "MJ"
	PackageSuelta PackageRef = "SUELTA"
)

func ParsePackageRef(s string) (PackageRef, bool) {
	switch ref := PackageRef(strings.ToUpper(strings.TrimSpace(s))); ref {
	case PackageLMV, PackageMJ, PackageSuelta:
		return ref, true
	default:
		return "", false
	}
}

// IsPlan reports whether the tag is a recurring weekday package (LMV or MJ).
func (p PackageRef) IsPlan() bool {
	return p == PackageLMV || p == PackageMJ
}

// Weekdays returns the weekdays a plan grants access to. SUELTA has none.
func (p PackageRef) Weekdays() []time.Weekday {
	switch p {
	case PackageLMV:
		return []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	case PackageMJ:
		return []time.Weekday{time.Tuesday, time.Thursday}
	default:
		return nil
	}
}

func (p PackageRef) Covers(d time.Weekday) bool {
	for _, w := range p.Weekdays() {
		if w == d {
			return true
		}
	}
	return false
}

func IsWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
