// internal/display/view.go
package display

import (
	"time"

	"github.com/tamzrod/ppe-monitor/internal/status"
)

// Input is everything the display depends on.
type Input struct {
	Snapshot    status.Snapshot
	Phase       status.Phase
	Connected   bool
	RetryCount  int
	LastSuccess time.Time // zero until the first successful poll
	Updating    bool

	VideoOverlay bool
	VideoURL     string // empty while the source is cleared
}

// View is the fully rendered visible state.
// It is comparable; equal inputs always yield equal views.
type View struct {
	Icon      string        `json:"icon"`
	Label     string        `json:"label"`
	Status    status.Status `json:"status"`
	CSSClass  string        `json:"cssClass"`
	AriaLabel string        `json:"ariaLabel"`

	LastUpdated string `json:"lastUpdated"`

	Connected      bool   `json:"connected"`
	ConnectionText string `json:"connectionText"`
	DotClass       string `json:"dotClass"`

	Updating   bool         `json:"updating"`
	Phase      status.Phase `json:"phase"`
	RetryCount int          `json:"retryCount"`

	VideoOverlay bool   `json:"videoOverlay"`
	VideoURL     string `json:"videoUrl"`
}

// Render computes the view. Pure: no clock, no IO.
func Render(in Input) View {
	snap := in.Snapshot

	css := "status-box status-" + string(snap.CSSState)
	if in.Updating {
		css += " updating"
	}

	v := View{
		Icon:      snap.Icon,
		Label:     snap.Text,
		Status:    snap.Status,
		CSSClass:  css,
		AriaLabel: "Current status: " + snap.Text,

		Connected: in.Connected,

		Updating:   in.Updating,
		Phase:      in.Phase,
		RetryCount: in.RetryCount,

		VideoOverlay: in.VideoOverlay,
		VideoURL:     in.VideoURL,
	}

	if !in.LastSuccess.IsZero() {
		v.LastUpdated = "Last updated: " + in.LastSuccess.Local().Format("15:04:05")
	}

	if in.Connected {
		v.ConnectionText = "Connected"
		v.DotClass = "indicator-dot"
	} else {
		v.ConnectionText = "Disconnected"
		v.DotClass = "indicator-dot disconnected"
	}

	return v
}
