package hostgraph

// Machine selects which machine an option applies to
type Machine string

const (
	MachineHost  Machine = "host"
	MachineBuild Machine = "build"
)

// OptionKey identifies one option value. An empty Subproject is the root project.
type OptionKey struct {
	Name       string
	Subproject string
	Machine    Machine
}

// HostKey returns the key of a root-project option on the host machine
func HostKey(name string) OptionKey {
	return OptionKey{Name: name, Machine: MachineHost}
}

// Options maps option keys to their ordered values. Scalar options hold a
// single element.
type Options map[OptionKey][]string

// List returns the values of key, or nil
func (o Options) List(key OptionKey) []string {
	return o[key]
}

// String returns the first value of key, or ""
func (o Options) String(key OptionKey) string {
	if v := o[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
