package notify

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

const displayLayout = "Mon 2 Jan 15:04"

type emailKind struct {
	subject  string
	headline string
	template string
}

var emailKinds = map[domain.EventType]emailKind{
	domain.EventShiftInvited:        {"You're invited to a shift", "You have been invited to pick up a shift.", "invitation.html"},
	domain.EventShiftAccepted:       {"Shift accepted", "A professional accepted your shift.", "shift_update.html"},
	domain.EventInvitationWithdrawn: {"Shift no longer available", "This shift has been taken by someone else.", "shift_update.html"},
	domain.EventShiftDeclined:       {"Invitation declined", "A professional declined your invitation.", "shift_update.html"},
	domain.EventShiftTimesChanged:   {"Shift times changed", "The times of your shift have changed.", "shift_update.html"},
	domain.EventShiftCancelled:      {"Shift cancelled", "This shift has been cancelled.", "shift_update.html"},
	domain.EventShiftClockedIn:      {"Professional clocked in", "Your professional has clocked in at the venue.", "shift_update.html"},
	domain.EventShiftFinished:       {"Shift finished", "Your professional has clocked out.", "shift_update.html"},
	domain.EventShiftCompleted:      {"Shift completed", "The business confirmed your shift as completed.", "shift_update.html"},
}

type emailData struct {
	FullName   string
	Headline   string
	Title      string
	Start      string
	End        string
	HourlyRate float64
	Status     string
	Reason     string
	Link       string
}

type Composer struct {
	from      string
	appURL    string
	loc       *time.Location
	templates *template.Template
}

func NewComposer(from, appURL string, loc *time.Location) (*Composer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Composer{
		from:      from,
		appURL:    strings.TrimRight(appURL, "/"),
		loc:       loc,
		templates: tmpl,
	}, nil
}

// Emails reports whether events of this type are mailed at all.
func Emails(typ domain.EventType) bool {
	_, ok := emailKinds[typ]
	return ok
}

func (c *Composer) Compose(event domain.ShiftEvent, to *domain.User) (*mail.Msg, error) {
	kind, ok := emailKinds[event.Type]
	if !ok {
		return nil, fmt.Errorf("no email for event type %s", event.Type)
	}
	if event.Shift == nil {
		return nil, fmt.Errorf("event %s has no shift snapshot", event.ID)
	}
	shift := event.Shift

	msg := mail.NewMsg()
	if err := msg.FromFormat("Hubshift", c.from); err != nil {
		return nil, err
	}
	if err := msg.AddToFormat(to.FullName, to.Email); err != nil {
		return nil, err
	}
	msg.Subject(fmt.Sprintf("%s: %s", kind.subject, shift.Title))

	data := emailData{
		FullName:   to.FullName,
		Headline:   kind.headline,
		Title:      shift.Title,
		Start:      shift.StartTime.In(c.loc).Format(displayLayout),
		End:        shift.EndTime.In(c.loc).Format(displayLayout),
		HourlyRate: shift.HourlyRate,
		Status:     shift.Status.Label(),
		Reason:     event.Reason,
		Link:       fmt.Sprintf("%s/shifts/%s", c.appURL, shift.ID),
	}
	if err := msg.SetBodyHTMLTemplate(c.templates.Lookup(kind.template), data); err != nil {
		return nil, err
	}

	return msg, nil
}
