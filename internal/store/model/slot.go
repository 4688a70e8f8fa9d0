package model

import (
	"fmt"
	"strings"
	"time"
)

// Slot is one of the fixed half-hour interview windows offered each day.
type Slot string

const (
	Slot1000 Slot = "10:00 AM - 10:30 AM"
	Slot1100 Slot = "11:00 AM - 11:30 AM"
	Slot1300 Slot = "1:00 PM - 1:30 PM"
	Slot1500 Slot = "3:00 PM - 3:30 PM"
	Slot1630 Slot = "4:30 PM - 5:00 PM"
)

var Slots = []Slot{Slot1000, Slot1100, Slot1300, Slot1500, Slot1630}

var slotDashReplacer = strings.NewReplacer(
	"â€“", "-", // en dash decoded as windows-1252
	"–", "-",
	"—", "-",
)

// ParseSlot normalizes a client supplied label and matches it against the offered slots.
func ParseSlot(label string) (Slot, error) {
	parts := strings.Split(slotDashReplacer.Replace(label), "-")
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(p), " ")
	}
	normalized := strings.Join(parts, " - ")

	for _, s := range Slots {
		if strings.EqualFold(string(s), normalized) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown slot %q", label)
}

func (s Slot) IsValid() bool {
	for _, known := range Slots {
		if s == known {
			return true
		}
	}
	return false
}

func (s Slot) String() string {
	return string(s)
}

// BookingDay truncates t to midnight UTC of its calendar day as seen in t's own location.
// Bookings made for the same day therefore compare equal regardless of the submitted time.
func BookingDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
