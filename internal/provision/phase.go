package provision

// Phase is the per-machine lifecycle position across setup and launch.
type Phase int

const (
	PhaseNotProvisioned Phase = iota
	PhaseProvisionedToolAbsent
	PhaseProvisionedToolPresent
	PhaseReady
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseNotProvisioned:
		return "NotProvisioned"
	case PhaseProvisionedToolAbsent:
		return "ProvisionedToolAbsent"
	case PhaseProvisionedToolPresent:
		return "ProvisionedToolPresent"
	case PhaseReady:
		return "Ready"
	case PhaseRunning:
		return "Running"
	default:
		return "Unknown"
	}
}

// PhaseOf derives the furthest phase whose prerequisites are all present.
// Environment and dependencies gate provisioning, then the tool, then
// directories.
func PhaseOf(statuses []Status) Phase {
	absent := map[Kind]bool{}
	for _, s := range statuses {
		if s.State != StatePresent {
			absent[s.Kind] = true
		}
	}
	switch {
	case absent[KindEnvironment] || absent[KindDependencies]:
		return PhaseNotProvisioned
	case absent[KindTool]:
		return PhaseProvisionedToolAbsent
	case absent[KindDirectory]:
		return PhaseProvisionedToolPresent
	default:
		return PhaseReady
	}
}
