package dashboard

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nastad/tmsis-dashboard/pkg/warehouse"
)

// Define static errors
var (
	ErrUnknownPage = errors.New("unknown page")
	ErrNoExport    = errors.New("page has no CSV export")
)

// ErrorPanel replaces a page's views when its data could not be loaded
type ErrorPanel struct {
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Guidance string         `json:"guidance"`
	Kind     warehouse.Kind `json:"kind"`
	Incident string         `json:"incident"`
}

// NewErrorPanel describes a warehouse failure for the analyst. The incident ID
// ties the panel to the matching log line.
func NewErrorPanel(err *warehouse.Error) *ErrorPanel {
	panel := &ErrorPanel{
		Title:    "Data unavailable",
		Kind:     err.Kind,
		Incident: uuid.NewString(),
	}

	switch err.Kind {
	case warehouse.KindConnection:
		panel.Message = "The data warehouse could not be reached."
		panel.Guidance = "Try again in a few minutes."
	case warehouse.KindAuth:
		panel.Message = "The data warehouse rejected the dashboard's credentials."
		panel.Guidance = "Contact the dashboard administrator and quote the incident ID."
	case warehouse.KindTimeout:
		panel.Message = "The query took too long to complete."
		panel.Guidance = "Narrow the state or year selection, then try again."
	default:
		panel.Message = "The data warehouse could not run the query for this page."
		panel.Guidance = "Report the incident ID to the dashboard administrator."
	}

	return panel
}
