package events

import (
	"strings"
	"testing"
)

func createRequest() CreateRequest {
	return CreateRequest{
		Type:           "brevet",
		Region:         "LM",
		EventCode:      "300",
		Date:           "2010-05-01",
		StartTime:      "10:00",
		OrganizerEmail: "organizer@example.com",
	}
}

func TestCreateRequestValidation(t *testing.T) {
	t.Run("valid brevet", func(t *testing.T) {
		req := createRequest()
		ev, msg := req.toEvent()
		if msg != "" {
			t.Fatalf("toEvent: %s", msg)
		}
		if ev.URLKey() != "LM300" {
			t.Errorf("URLKey = %q, want LM300", ev.URLKey())
		}
	})

	t.Run("region must be a real brevet region", func(t *testing.T) {
		for _, region := range []string{"Club", "XX", ""} {
			req := createRequest()
			req.Region = region
			if _, msg := req.toEvent(); msg == "" {
				t.Errorf("region %q accepted", region)
			}
		}
	})

	t.Run("organizer addresses must parse", func(t *testing.T) {
		cases := []string{" , ", "", "not-an-address", "a@x.com, nope"}
		for _, org := range cases {
			req := createRequest()
			req.OrganizerEmail = org
			if _, msg := req.toEvent(); !strings.Contains(msg, "organizer_email") {
				t.Errorf("organizer_email %q accepted (msg=%q)", org, msg)
			}
		}

		req := createRequest()
		req.OrganizerEmail = "a@x.com, b@x.com"
		if _, msg := req.toEvent(); msg != "" {
			t.Errorf("comma-separated organizer list rejected: %s", msg)
		}
	})

	t.Run("populaire close must not be after the start", func(t *testing.T) {
		req := createRequest()
		req.Type = "populaire"
		req.Region = ""
		req.EventCode = "VicPop"
		req.RegistrationCloses = "2010-05-01T11:00:00Z"
		if _, msg := req.toEvent(); msg == "" {
			t.Error("close time after the event start accepted")
		}

		req.RegistrationCloses = "2010-04-28T12:00:00Z"
		if _, msg := req.toEvent(); msg != "" {
			t.Errorf("valid close time rejected: %s", msg)
		}
	})
}
