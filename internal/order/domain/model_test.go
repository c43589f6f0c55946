package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{StatusProcessing, StatusConfirmed, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},

		{StatusProcessing, StatusShipped, false},
		{StatusProcessing, StatusDelivered, false},
		{StatusConfirmed, StatusDelivered, false},
		{StatusConfirmed, StatusProcessing, false},
		{StatusShipped, StatusConfirmed, false},

		{StatusProcessing, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},

		{StatusDelivered, StatusConfirmed, false},
		{StatusCancelled, StatusProcessing, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusProcessing, StatusConfirmed, StatusShipped} {
		if IsTerminal(status) {
			t.Errorf("expected %s to be non-terminal", status)
		}
	}
	for _, status := range []string{StatusDelivered, StatusCancelled} {
		if !IsTerminal(status) {
			t.Errorf("expected %s to be terminal", status)
		}
	}
}

func TestValidStatus(t *testing.T) {
	if ValidStatus("returned") {
		t.Fatalf("expected unknown status to be invalid")
	}
	if !ValidStatus(StatusShipped) {
		t.Fatalf("expected shipped to be valid")
	}
}
