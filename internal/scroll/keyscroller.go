package scroll

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// keySpec holds per-platform encodings of one scroll key.
type keySpec struct {
	macCode  string // macOS virtual key code for System Events
	x11Name  string // X keysym for xdotool
	sendKeys string // Windows SendKeys token
}

// Supported scroll keys, matching the original tool: space, down,
// pagedown.
var keys = map[string]keySpec{
	"space":    {macCode: "49", x11Name: "space", sendKeys: " "},
	"down":     {macCode: "125", x11Name: "Down", sendKeys: "{DOWN}"},
	"pagedown": {macCode: "121", x11Name: "Page_Down", sendKeys: "{PGDN}"},
}

// LookupKey resolves a key name, case-insensitively.
func LookupKey(name string) (keySpec, error) {
	spec, ok := keys[strings.ToLower(name)]
	if !ok {
		return keySpec{}, fmt.Errorf("unsupported scroll key %q (want space, down or pagedown)", name)
	}
	return spec, nil
}

// KeyNames lists the supported key names.
func KeyNames() []string {
	return []string{"space", "down", "pagedown"}
}

// KeyScroller issues scroll key presses through the platform's input
// tool: System Events on macOS, xdotool on X11, SendKeys on Windows.
type KeyScroller struct {
	// run executes one command; replaceable in tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewKeyScroller creates a scroller using exec.
func NewKeyScroller() *KeyScroller {
	return &KeyScroller{
		run: func(ctx context.Context, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...)
			if output, err := cmd.CombinedOutput(); err != nil {
				return fmt.Errorf("%s failed: %w, output: %s", name, err, output)
			}
			return nil
		},
	}
}

// Step presses the named key once.
func (k *KeyScroller) Step(ctx context.Context, key string) error {
	spec, err := LookupKey(key)
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "System Events" to key code %s`, spec.macCode)
		return k.run(ctx, "osascript", "-e", script)
	case "windows":
		script := fmt.Sprintf(
			`$wshell = New-Object -ComObject wscript.shell; $wshell.SendKeys('%s')`, spec.sendKeys)
		return k.run(ctx, "powershell", "-NoProfile", "-Command", script)
	default:
		return k.run(ctx, "xdotool", "key", spec.x11Name)
	}
}
