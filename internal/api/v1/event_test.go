package v1

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEvent_Validation(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name: "valid event with all fields",
			event: Event{
				ID:          "evt_123",
				UserID:      "alice",
				AnonymousID: "anon-9f2",
				Name:        "page_viewed",
				OccurredAt:  now,
			},
			wantErr: false,
		},
		{
			name: "valid anonymous event",
			event: Event{
				ID:          "evt_124",
				AnonymousID: "anon-9f2",
				Name:        "product_viewed",
				OccurredAt:  now,
			},
			wantErr: false,
		},
		{
			name: "valid system event without actor",
			event: Event{
				ID:         "evt_125",
				Name:       "cache_warmed",
				OccurredAt: now,
			},
			wantErr: false,
		},
		{
			name: "missing id",
			event: Event{
				Name:       "page_viewed",
				OccurredAt: now,
			},
			wantErr: true,
		},
		{
			name: "missing name",
			event: Event{
				ID:         "evt_126",
				OccurredAt: now,
			},
			wantErr: true,
		},
		{
			name: "missing occurred_at",
			event: Event{
				ID:   "evt_127",
				Name: "page_viewed",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvent_ActorID(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "authenticated actor wins over anonymous",
			event: Event{UserID: "u1", AnonymousID: "a1"},
			want:  "user:u1",
		},
		{
			name:  "anonymous only",
			event: Event{AnonymousID: "a1"},
			want:  "anon:a1",
		},
		{
			name:  "no actor",
			event: Event{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.ActorID(); got != tt.want {
				t.Errorf("ActorID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvent_Day(t *testing.T) {
	// Day buckets are UTC regardless of the timestamp's location.
	loc := time.FixedZone("UTC+9", 9*3600)
	evt := Event{OccurredAt: time.Date(2025, 3, 1, 2, 30, 0, 0, loc)}
	if got := evt.Day(); got != "2025-02-28" {
		t.Errorf("Day() = %q, want 2025-02-28", got)
	}
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	evt := Event{
		ID:          "evt_200",
		AnonymousID: "anon-1",
		Name:        "coupon_applied",
		Properties: map[string]interface{}{
			"couponCode":     "SPRING10",
			"success":        true,
			"discountAmount": 10.5,
		},
		OccurredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		IngestedAt: time.Date(2025, 3, 1, 12, 0, 1, 0, time.UTC),
		IngestSeq:  42,
	}

	data, err := json.Marshal(&evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.ID != evt.ID || decoded.Name != evt.Name || decoded.AnonymousID != evt.AnonymousID {
		t.Errorf("round trip lost envelope fields: %+v", decoded)
	}
	if decoded.IngestSeq != 0 {
		t.Errorf("IngestSeq must not be serialized, got %d", decoded.IngestSeq)
	}
	if decoded.Properties["couponCode"] != "SPRING10" {
		t.Errorf("round trip lost properties: %+v", decoded.Properties)
	}
}
