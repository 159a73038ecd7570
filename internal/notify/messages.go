package notify

import (
	"fmt"
	"strings"

	"github.com/randopony/backend/internal/models"
)

// Message is a composed notification email. From is the organizer for rider
// confirmations so replies reach them; Sender carries the fixed system
// address for bounce handling.
type Message struct {
	From    string
	Sender  string
	ReplyTo string
	To      []string
	Subject string
	Body    string
}

// SiteLinks carries the database-stored site links and system sender address
// the messages reference.
type SiteLinks struct {
	EventWaiverURL    string
	MembershipFormURL string
	FromAddress       string
}

// RiderConfirmation composes the pre-registration confirmation email to the
// rider.
func RiderConfirmation(ev *models.Event, rider *models.Rider, links SiteLinks, baseURL string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You have pre-registered for the %s.\n\n", ev)
	fmt.Fprintf(&b, "The event page is at %s%s\n", baseURL, ev.Path())
	fmt.Fprintf(&b, "It lists everyone who has pre-registered, and any announcements from the organizer.\n")
	if links.EventWaiverURL != "" {
		fmt.Fprintf(&b, "\nPlease print the event waiver form from %s,\n", links.EventWaiverURL)
		fmt.Fprintf(&b, "read it carefully, fill it out, and bring it with you to the start.\n")
	}
	if ev.Type == models.EventTypeBrevet && !rider.ClubMember {
		fmt.Fprintf(&b, "\nOur records indicate that you are NOT a member of the club.\n")
		fmt.Fprintf(&b, "You must be a member to ride; please join beforehand, or at the start.\n")
		if links.MembershipFormURL != "" {
			fmt.Fprintf(&b, "The membership form is at %s\n", links.MembershipFormURL)
		}
	}
	fmt.Fprintf(&b, "\nHave a great ride!\n")

	// events are validated to carry at least one organizer address, but a
	// malformed row must not crash the worker mid-delivery
	from, replyTo := links.FromAddress, ""
	if organizers := ev.OrganizerAddresses(); len(organizers) > 0 {
		from = organizers[0]
		replyTo = ev.OrganizerEmail
	}
	return Message{
		From:    from,
		Sender:  links.FromAddress,
		ReplyTo: replyTo,
		To:      []string{rider.Email},
		Subject: fmt.Sprintf("Pre-registration Confirmation for %s", ev),
		Body:    b.String(),
	}
}

// OrganizerNotification composes the new-registration notification email to
// the event organizer(s).
func OrganizerNotification(ev *models.Event, rider *models.Rider, links SiteLinks, baseURL, adminEmail string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s> has pre-registered for the %s.\n\n", rider.FullName(), rider.Email, ev)
	if ev.MultiDistance() {
		fmt.Fprintf(&b, "Chosen distance: %d km\n", rider.Distance)
	}
	if ev.InfoQuestion != "" {
		fmt.Fprintf(&b, "Answer to %q: %s\n", ev.InfoQuestion, rider.InfoAnswer)
	}
	if ev.Type == models.EventTypeBrevet {
		if rider.ClubMember {
			fmt.Fprintf(&b, "Club member: yes\n")
		} else {
			fmt.Fprintf(&b, "Club member: NO - they have been told to join beforehand, or at the start.\n")
		}
	}
	fmt.Fprintf(&b, "\nThe rider list is at %s%s\n", baseURL, ev.Path())
	fmt.Fprintf(&b, "\nIf anything goes wrong with the pre-registration system, contact %s.\n", adminEmail)

	return Message{
		From:    links.FromAddress,
		Sender:  links.FromAddress,
		To:      ev.OrganizerAddresses(),
		Subject: fmt.Sprintf("%s has Pre-registered for the %s", rider.FullName(), ev),
		Body:    b.String(),
	}
}
