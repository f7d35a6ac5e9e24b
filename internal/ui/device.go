package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/rileyhilliard/ghkey/internal/auth"
)

// DeviceNotifier shows the device code and a waiting spinner while the
// device flow polls.
type DeviceNotifier struct {
	mu       sync.Mutex
	out      io.Writer
	animated *bool
	spinner  *Spinner
}

// NewDeviceNotifier writes to out.
func NewDeviceNotifier(out io.Writer) *DeviceNotifier {
	return &DeviceNotifier{out: out}
}

// SetAnimated forces spinner animation on or off.
func (n *DeviceNotifier) SetAnimated(animated bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.animated = &animated
}

// ShowDeviceCode prints where to go and what to type, then starts waiting.
func (n *DeviceNotifier) ShowDeviceCode(code auth.DeviceCode) {
	n.mu.Lock()
	defer n.mu.Unlock()

	fmt.Fprintf(n.out, "\n%s Open %s and enter the code:\n\n",
		SymbolArrow, InfoStyle().Render(code.VerificationURI))
	fmt.Fprintf(n.out, "    %s\n\n", HighlightStyle().Render(code.UserCode))

	n.spinner = NewSpinnerTo(n.out, "Waiting for authorization")
	if n.animated != nil {
		n.spinner.SetAnimated(*n.animated)
	}
	n.spinner.Start()
}

// Finished stops the spinner with the flow's outcome.
func (n *DeviceNotifier) Finished(state auth.DeviceState) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.spinner == nil {
		return
	}
	switch state {
	case auth.DeviceAuthenticated:
		n.spinner.Success()
	case auth.DeviceExpired:
		n.spinner.SetLabel("Device code expired")
		n.spinner.Fail()
	case auth.DeviceDenied:
		n.spinner.SetLabel("Authorization denied")
		n.spinner.Fail()
	default:
		n.spinner.SetLabel("Stopped waiting for authorization")
		n.spinner.Skip()
	}
	n.spinner = nil
}
