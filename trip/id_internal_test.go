package trip

import (
	"testing"
	"time"
)

func TestKeyFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{15.0, "15.0"},
		{12.5, "12.5"},
		{0.1, "0.1"},
		{-3.0, "-3.0"},
		{0, "0.0"},
	}
	for _, test := range tests {
		if got := keyFloat(&test.in); got != test.want {
			t.Fatalf("keyFloat(%v): got %v, want %v", test.in, got, test.want)
		}
	}
	if got := keyFloat(nil); got != nullKey {
		t.Fatalf("keyFloat(nil): got %v", got)
	}
}

func TestTripKey(t *testing.T) {
	pickup := time.Date(2020, 1, 5, 8, 0, 0, 0, time.UTC)
	fare := 15.0
	pu := int64(10)
	rec := Record{
		ServiceType:      "green",
		PickupDatetime:   &pickup,
		PickupLocationID: &pu,
		FareAmount:       &fare,
	}
	want := "green|2020-01-05T08:00:00|<NA>|10|<NA>|15.0"
	if got := tripKey(&rec); got != want {
		t.Fatalf("tripKey: got %v, want %v", got, want)
	}
}
