package health

// Level classifies a server health state.
type Level string

const (
	LevelOK      Level = "OK"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Scope names what a health state is about, e.g. a single plugin.
type Scope struct {
	Kind string
	ID   string
}

var GlobalScope = Scope{Kind: "global"}

func PluginScope(pluginID string) Scope {
	return Scope{Kind: "plugin", ID: pluginID}
}

// HealthStateType tags a health state so later states of the same type can replace it.
type HealthStateType struct {
	Name  string
	Scope Scope
}

func General(scope Scope) HealthStateType {
	return HealthStateType{Name: "general", Scope: scope}
}

func Forbidden() HealthStateType {
	return HealthStateType{Name: "forbidden", Scope: GlobalScope}
}

func InvalidConfig(scope Scope) HealthStateType {
	return HealthStateType{Name: "invalid-config", Scope: scope}
}

// ServerHealthState is the health classification attached to an operation outcome.
type ServerHealthState struct {
	Level       Level
	Message     string
	Description string
	Type        HealthStateType
}

func Success(t HealthStateType) ServerHealthState {
	return ServerHealthState{Level: LevelOK, Type: t}
}

func Warning(message, description string, t HealthStateType) ServerHealthState {
	return ServerHealthState{Level: LevelWarning, Message: message, Description: description, Type: t}
}

func Error(message, description string, t HealthStateType) ServerHealthState {
	return ServerHealthState{Level: LevelError, Message: message, Description: description, Type: t}
}

func (s ServerHealthState) IsSuccess() bool {
	return s.Level == LevelOK
}
