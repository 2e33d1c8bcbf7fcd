package deps

import (
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// Dependency is an external program hyprminutes may call
type Dependency struct {
	Name     string
	Purpose  string
	Required bool // needed for the default configuration
	Status   Status
}

// check looks up name in PATH and, if found, runs it with versionArgs and
// keeps the first line of output as the version
func check(name string, versionArgs ...string) Status {
	path, err := exec.LookPath(name)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	if len(versionArgs) == 0 {
		return status
	}
	cmd := exec.Command(path, versionArgs...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}

// CheckWhisperCli checks if whisper-cli is installed and returns its status
func CheckWhisperCli() Status {
	return check("whisper-cli", "--version")
}

// CheckPwRecord checks for the PipeWire recorder used for live capture
func CheckPwRecord() Status {
	return check("pw-record", "--version")
}

// CheckNotifySend checks for the desktop notification helper
func CheckNotifySend() Status {
	return check("notify-send", "--version")
}

// CheckWlCopy checks for the Wayland clipboard tool used to copy minutes
func CheckWlCopy() Status {
	return check("wl-copy", "--version")
}

// All reports every external program. needWhisper marks whisper-cli as
// required, for configurations that transcribe locally.
func All(needWhisper bool) []Dependency {
	return []Dependency{
		{Name: "pw-record", Purpose: "microphone capture", Required: true, Status: CheckPwRecord()},
		{Name: "whisper-cli", Purpose: "local transcription", Required: needWhisper, Status: CheckWhisperCli()},
		{Name: "notify-send", Purpose: "desktop notifications", Status: CheckNotifySend()},
		{Name: "wl-copy", Purpose: "copying minutes to the clipboard", Status: CheckWlCopy()},
	}
}

// Missing returns the required dependencies that are not installed
func Missing(all []Dependency) []Dependency {
	var out []Dependency
	for _, d := range all {
		if d.Required && !d.Status.Installed {
			out = append(out, d)
		}
	}
	return out
}
