package model

import "time"

// Field names of a twitter_actions document.
const (
	FieldID       = "_id"
	FieldAction   = "action"
	FieldResult   = "result"
	FieldRerun    = "rerun"
	FieldUsername = "username"
	FieldName     = "name"
	FieldDate     = "date"
	FieldDateOnly = "date_only"
)

// DateFields lists the timestamp fields in lookup order.
var DateFields = []string{FieldDate, FieldDateOnly}

// ActionEvent is a typed view of one attempted engagement action.
// Optional text fields are empty when absent.
type ActionEvent struct {
	Action   string
	Result   string
	Rerun    string
	Username string
	Name     string
	Date     time.Time
}

// EventFromDocument builds the typed view; non-string fields read as empty.
func EventFromDocument(d Document) ActionEvent {
	e := ActionEvent{}
	e.Action, _ = d.String(FieldAction)
	e.Result, _ = d.String(FieldResult)
	e.Rerun, _ = d.String(FieldRerun)
	e.Username, _ = d.String(FieldUsername)
	e.Name, _ = d.String(FieldName)
	if day, ok := d.Time(DateFields...); ok {
		e.Date = day
	}
	return e
}

// IsZero reports whether no event field was readable.
func (e ActionEvent) IsZero() bool { return e == ActionEvent{} }
