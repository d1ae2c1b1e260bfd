package calculator

import "testing"

func TestParticipantShares(t *testing.T) {
	tests := []struct {
		name         string
		items        []ShareItem
		participants []string
		wantErr      bool
		want         map[string]string
	}{
		{
			name: "for-all item split across everyone",
			items: []ShareItem{
				{Name: "Cake", Price: dec("30.00"), Quantity: 1, ForAll: true},
			},
			participants: []string{"alice", "bob", "carol"},
			want:         map[string]string{"alice": "10", "bob": "10", "carol": "10"},
		},
		{
			name: "consumer item split across consumers only",
			items: []ShareItem{
				{Name: "Beer", Price: dec("3.00"), Quantity: 4, Consumers: []string{"alice", "bob"}},
				{Name: "Pizza", Price: dec("12.00"), Quantity: 1, ForAll: true},
			},
			participants: []string{"alice", "bob", "carol"},
			want:         map[string]string{"alice": "10", "bob": "10", "carol": "4"},
		},
		{
			name: "item without sharers is skipped",
			items: []ShareItem{
				{Name: "Wine", Price: dec("9.00"), Quantity: 1},
			},
			participants: []string{"alice"},
			want:         map[string]string{"alice": "0"},
		},
		{
			name: "uneven division rounds to cents",
			items: []ShareItem{
				{Name: "Cups", Price: dec("10.00"), Quantity: 1, ForAll: true},
			},
			participants: []string{"alice", "bob", "carol"},
			want:         map[string]string{"alice": "3.33", "bob": "3.33", "carol": "3.33"},
		},
		{
			name:    "no participants should error",
			items:   []ShareItem{{Name: "Water", Price: dec("1"), Quantity: 1, ForAll: true}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := ParticipantShares(tt.items, tt.participants)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for person, want := range tt.want {
				got := shares[person]
				if got == nil {
					t.Fatalf("missing share for %s", person)
				}
				if !got.Total.Equal(dec(want)) {
					t.Errorf("%s total = %s, want %s", person, got.Total, want)
				}
			}
		})
	}
}
