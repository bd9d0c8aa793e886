package model

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		e       ScheduleEvent
		wantErr bool
	}{
		{"plain", ScheduleEvent{Title: "Math", StartHour: 9, EndHour: 10, EndMin: 30}, false},
		{"until midnight", ScheduleEvent{Title: "Movie", StartHour: 22, EndHour: 24}, false},
		{"empty title", ScheduleEvent{Title: "  ", StartHour: 9, EndHour: 10}, true},
		{"hour 25", ScheduleEvent{Title: "x", StartHour: 9, EndHour: 25}, true},
		{"minute 60", ScheduleEvent{Title: "x", StartHour: 9, StartMin: 60, EndHour: 10}, true},
		{"end 24:30", ScheduleEvent{Title: "x", StartHour: 23, EndHour: 24, EndMin: 30}, true},
		{"start 24:59", ScheduleEvent{Title: "x", StartHour: 24, StartMin: 59, EndHour: 24, EndMin: 59}, true},
		{"ends before start", ScheduleEvent{Title: "x", StartHour: 10, EndHour: 9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
