package model

// StateKind tags which variant of RequestState is active.
type StateKind int

const (
	StateIdle StateKind = iota
	StateLoading
	StateSuccess
	StateFailure
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// RequestState is a tagged variant over Idle, Loading, Success and Failure.
// Only the constructors below build one, so a snapshot and an error never coexist.
type RequestState struct {
	kind     StateKind
	city     string
	seq      uint64
	snapshot *WeatherSnapshot
	err      *ErrorDetail
}

func IdleState() RequestState {
	return RequestState{kind: StateIdle}
}

func LoadingState(city string, seq uint64) RequestState {
	return RequestState{kind: StateLoading, city: city, seq: seq}
}

func SuccessState(city string, seq uint64, snapshot WeatherSnapshot) RequestState {
	return RequestState{kind: StateSuccess, city: city, seq: seq, snapshot: &snapshot}
}

func FailureState(city string, seq uint64, detail ErrorDetail) RequestState {
	return RequestState{kind: StateFailure, city: city, seq: seq, err: &detail}
}

func (s RequestState) Kind() StateKind { return s.kind }

// City is the city name the state's request was issued for. Empty while idle.
func (s RequestState) City() string { return s.city }

// Seq is the sequence number of the request that produced the state.
func (s RequestState) Seq() uint64 { return s.seq }

// Snapshot returns a copy of the snapshot; ok is false unless the state is Success.
func (s RequestState) Snapshot() (WeatherSnapshot, bool) {
	if s.kind != StateSuccess || s.snapshot == nil {
		return WeatherSnapshot{}, false
	}
	return *s.snapshot, true
}

// Err returns the failure detail; ok is false unless the state is Failure.
func (s RequestState) Err() (ErrorDetail, bool) {
	if s.kind != StateFailure || s.err == nil {
		return ErrorDetail{}, false
	}
	return *s.err, true
}
