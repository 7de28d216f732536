package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEndDate(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "three months",
			start:  time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
			months: 3,
			want:   time.Date(2024, 4, 10, 9, 30, 0, 0, time.UTC),
		},
		{
			name:   "crosses year",
			start:  time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			months: 12,
			want:   time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "month overflow normalizes forward",
			start:  time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "leap year overflow",
			start:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EndDate(tt.start, tt.months)
			if !got.Equal(tt.want) {
				t.Errorf("EndDate(%v, %d) = %v, want %v", tt.start, tt.months, got, tt.want)
			}
			if got.Before(tt.start) {
				t.Errorf("end date %v before start %v", got, tt.start)
			}
		})
	}
}

func TestMentorshipStatus(t *testing.T) {
	tests := []struct {
		status   MentorshipStatus
		valid    bool
		terminal bool
		open     bool
	}{
		{StatusPending, true, false, true},
		{StatusActive, true, false, true},
		{StatusCompleted, true, true, false},
		{StatusCancelled, true, true, false},
		{MentorshipStatus("archived"), false, false, false},
		{MentorshipStatus(""), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.IsOpen(); got != tt.open {
				t.Errorf("IsOpen() = %v, want %v", got, tt.open)
			}
		})
	}
}

func TestOpenKey(t *testing.T) {
	mentor := primitive.NewObjectID()
	mentee := primitive.NewObjectID()

	if OpenKey(mentor, mentee) == OpenKey(mentee, mentor) {
		t.Error("open key must depend on which side is the mentor")
	}
	if got, want := OpenKey(mentor, mentee), mentor.Hex()+":"+mentee.Hex(); got != want {
		t.Errorf("OpenKey = %q, want %q", got, want)
	}
}
